package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/models"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the explicit per-user state both flows operate on. Interactions
// on one session run one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time
	PDFLog    *ConversationLog
	SearchLog *ConversationLog
	Memory    *BoundedMemory

	work     sync.Mutex
	docMu    sync.RWMutex
	document *models.DocumentInfo
}

func NewSession(memoryWindow int) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		PDFLog:    NewConversationLog(),
		SearchLog: NewConversationLog(),
		Memory:    NewBoundedMemory(memoryWindow),
	}
}

// Log returns the conversation log for a mode.
func (s *Session) Log(mode models.Mode) *ConversationLog {
	if mode == models.ModeSearch {
		return s.SearchLog
	}
	return s.PDFLog
}

// Document returns the currently indexed document, if any.
func (s *Session) Document() (models.DocumentInfo, bool) {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	if s.document == nil {
		return models.DocumentInfo{}, false
	}
	return *s.document, true
}

func (s *Session) setDocument(doc *models.DocumentInfo) {
	s.docMu.Lock()
	s.document = doc
	s.docMu.Unlock()
}

// SessionStore keeps live sessions in memory. A session that sits idle past the
// TTL is evicted and its index dropped.
type SessionStore struct {
	cache        *cache.Cache
	memoryWindow int
	index        VectorIndex
	logger       logger.ILogger
}

func NewSessionStore(ttl time.Duration, memoryWindow int, index VectorIndex, log logger.ILogger) *SessionStore {
	c := cache.New(ttl, 10*time.Minute)
	store := &SessionStore{cache: c, memoryWindow: memoryWindow, index: index, logger: log}
	c.OnEvicted(store.onEvicted)
	return store
}

func (r *SessionStore) onEvicted(id string, _ interface{}) {
	r.logger.Info("SESSION", "Session ended", map[string]interface{}{"session_id": id})
	if r.index == nil {
		return
	}
	if err := r.index.Drop(context.Background(), id); err != nil {
		r.logger.Warn("SESSION", "Failed to drop session index", map[string]interface{}{"session_id": id, "error": err.Error()})
	}
}

func (r *SessionStore) Create() *Session {
	session := NewSession(r.memoryWindow)
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
	r.logger.Info("SESSION", "Session created", map[string]interface{}{"session_id": session.ID})
	return session
}

// Get returns the session and pushes its expiry forward.
func (r *SessionStore) Get(id string) (*Session, error) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	session := x.(*Session)
	r.cache.Set(id, session, cache.DefaultExpiration)
	return session, nil
}

func (r *SessionStore) Delete(id string) error {
	if _, found := r.cache.Get(id); !found {
		return ErrSessionNotFound
	}
	r.cache.Delete(id)
	return nil
}

func (r *SessionStore) Count() int {
	return r.cache.ItemCount()
}
