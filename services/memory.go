package services

import (
	"sync"

	"github/itish2003/docsearch/models"
)

// BoundedMemory is the rolling window of recent turns handed to the language model.
type BoundedMemory struct {
	mu       sync.Mutex
	capacity int
	turns    []models.Turn
}

func NewBoundedMemory(capacity int) *BoundedMemory {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedMemory{capacity: capacity, turns: make([]models.Turn, 0, capacity)}
}

// Push adds a turn, evicting the oldest one once the window is full.
func (m *BoundedMemory) Push(turn models.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == m.capacity {
		copy(m.turns, m.turns[1:])
		m.turns = m.turns[:m.capacity-1]
	}
	m.turns = append(m.turns, turn)
}

// Snapshot returns the remembered turns, oldest first.
func (m *BoundedMemory) Snapshot() []models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *BoundedMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

func (m *BoundedMemory) Capacity() int {
	return m.capacity
}
