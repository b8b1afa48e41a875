// Package store persists the two catalog collections, books and sessions.
//
// Every repository works on whole collections: a load returns every record and
// a save replaces every record. Handlers perform read-modify-write cycles on top
// of that, so two interleaved requests resolve as last-writer-wins. The
// repositories only guarantee that an individual load or save is never torn.
package store

import (
	"context"
	"fmt"
	"os"

	"github.com/conneroisu/knygynas/internal/config"
	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/types"
)

// BookRepository loads and saves the whole book collection.
type BookRepository interface {
	LoadBooks(ctx context.Context) ([]types.Book, error)
	SaveBooks(ctx context.Context, books []types.Book) error
}

// SessionRepository loads and saves the whole session collection.
type SessionRepository interface {
	LoadSessions(ctx context.Context) ([]types.Session, error)
	SaveSessions(ctx context.Context, sessions []types.Session) error
}

// Store is a backend serving both collections.
type Store interface {
	BookRepository
	SessionRepository
	Close() error
}

// Open builds the backend selected by the storage configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		fs := NewFileStore(cfg.BooksPath, cfg.SessionsPath)
		if err := fs.EnsureFiles(); err != nil {
			return nil, err
		}
		return fs, nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenExisting builds the configured backend without creating anything on
// disk. Missing data files surface as storage corruption on first load, or
// here for SQLite.
func OpenExisting(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.BooksPath, cfg.SessionsPath), nil
	case config.BackendSQLite:
		if cfg.SQLitePath != ":memory:" {
			if _, err := os.Stat(cfg.SQLitePath); err != nil {
				return nil, apperrors.NewStorageCorruptionError(cfg.SQLitePath, err)
			}
		}
		return OpenSQLiteStore(cfg.SQLitePath)
	default:
		return Open(cfg)
	}
}

// FindBook returns the index of the book with the given id, or -1.
func FindBook(books []types.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

// ReplaceBook returns a copy of books with the record sharing book.ID swapped
// for book. Other records keep their position.
func ReplaceBook(books []types.Book, book types.Book) []types.Book {
	out := make([]types.Book, len(books))
	for i, b := range books {
		if b.ID == book.ID {
			out[i] = book
			continue
		}
		out[i] = b
	}
	return out
}

// RemoveBook returns a copy of books without the record with the given id.
func RemoveBook(books []types.Book, id string) []types.Book {
	out := make([]types.Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// FindSession returns the index of the session with the given id, or -1.
func FindSession(sessions []types.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
