package store

import (
	"context"
	"sync"

	"github.com/conneroisu/knygynas/internal/types"
)

// MemoryStore keeps both collections in process memory. Loads and saves copy
// the slices so callers never share backing arrays with the store.
type MemoryStore struct {
	mu       sync.Mutex
	books    []types.Book
	sessions []types.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:    []types.Book{},
		sessions: []types.Session{},
	}
}

// NewMemoryStoreWithBooks creates an in-memory store seeded with books.
func NewMemoryStoreWithBooks(books ...types.Book) *MemoryStore {
	s := NewMemoryStore()
	s.books = append(s.books, books...)
	return s
}

func (s *MemoryStore) LoadBooks(ctx context.Context) ([]types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *MemoryStore) SaveBooks(ctx context.Context, books []types.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = make([]types.Book, len(books))
	copy(s.books, books)
	return nil
}

func (s *MemoryStore) LoadSessions(ctx context.Context) ([]types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out, nil
}

func (s *MemoryStore) SaveSessions(ctx context.Context, sessions []types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]types.Session, len(sessions))
	for i, sess := range sessions {
		s.sessions[i] = sess.Clone()
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
