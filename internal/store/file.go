package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/types"
)

// FileStore keeps each collection as a JSON array in its own file.
type FileStore struct {
	booksPath    string
	sessionsPath string

	// booksMu and sessionsMu serialise single reads and writes of a file.
	// They are not held across a handler's read-modify-write cycle.
	booksMu    sync.Mutex
	sessionsMu sync.Mutex
}

// NewFileStore creates a store over the two data files. The files are not
// touched until the first load or save.
func NewFileStore(booksPath, sessionsPath string) *FileStore {
	return &FileStore{
		booksPath:    booksPath,
		sessionsPath: sessionsPath,
	}
}

// EnsureFiles creates missing data files holding an empty collection.
// Existing files are left alone, even when their content is invalid.
func (s *FileStore) EnsureFiles() error {
	for _, path := range []string{s.booksPath, s.sessionsPath} {
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return apperrors.NewStorageCorruptionError(path, err)
		}
		if err := writeFileAtomic(path, []byte("[]")); err != nil {
			return apperrors.NewStorageWriteError(path, err)
		}
	}
	return nil
}

// BooksPath returns the location of the books file.
func (s *FileStore) BooksPath() string { return s.booksPath }

// SessionsPath returns the location of the sessions file.
func (s *FileStore) SessionsPath() string { return s.sessionsPath }

// LoadBooks reads and decodes the whole books file.
func (s *FileStore) LoadBooks(ctx context.Context) ([]types.Book, error) {
	s.booksMu.Lock()
	defer s.booksMu.Unlock()

	var books []types.Book
	if err := readJSON(s.booksPath, &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []types.Book{}
	}
	return books, nil
}

// SaveBooks replaces the books file with the given collection.
func (s *FileStore) SaveBooks(ctx context.Context, books []types.Book) error {
	if books == nil {
		books = []types.Book{}
	}

	s.booksMu.Lock()
	defer s.booksMu.Unlock()

	return writeJSON(s.booksPath, books)
}

// LoadSessions reads and decodes the whole sessions file.
func (s *FileStore) LoadSessions(ctx context.Context) ([]types.Session, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	var sessions []types.Session
	if err := readJSON(s.sessionsPath, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []types.Session{}
	}
	for i := range sessions {
		if sessions[i].Data == nil {
			sessions[i].Data = make(map[string]any)
		}
	}
	return sessions, nil
}

// SaveSessions replaces the sessions file with the given collection.
func (s *FileStore) SaveSessions(ctx context.Context, sessions []types.Session) error {
	if sessions == nil {
		sessions = []types.Session{}
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	return writeJSON(s.sessionsPath, sessions)
}

// Close is a no-op; the store holds no open handles.
func (s *FileStore) Close() error { return nil }

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewStorageCorruptionError(path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewStorageCorruptionError(path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewStorageWriteError(path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return apperrors.NewStorageWriteError(path, err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory, then renames it
// over path so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
