package services

import (
	"sync"
	"time"

	"github/itish2003/docsearch/models"
)

// ConversationLog is an append-only list of turns. Nothing is ever edited or removed.
type ConversationLog struct {
	mu    sync.RWMutex
	turns []models.Turn
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// Append stamps the turn if needed and stores it.
func (l *ConversationLog) Append(turn models.Turn) models.Turn {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
	return turn
}

// Turns returns a copy in insertion order.
func (l *ConversationLog) Turns() []models.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
