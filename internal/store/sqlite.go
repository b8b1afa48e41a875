package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/types"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps both collections in an embedded SQLite database. A save
// still replaces the whole collection, inside a single transaction, so handler
// semantics match the flat-file backend.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLiteStore opens (creating if needed) the database at path. The special
// path ":memory:" gives a private in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.WrapStorage(err, apperrors.ErrCodeStorageWrite, "failed to create directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.WrapStorage(err, apperrors.ErrCodeStorageCorrupt, "failed to open database")
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		year TEXT NOT NULL,
		genre TEXT NOT NULL,
		isbn TEXT NOT NULL,
		pages TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sessions (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.NewStorageCorruptionError(s.dbPath, err)
	}
	return nil
}

func (s *SQLiteStore) LoadBooks(ctx context.Context) ([]types.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, year, genre, isbn, pages FROM books ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
	}
	defer rows.Close()

	books := []types.Book{}
	for rows.Next() {
		var b types.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.Genre, &b.ISBN, &b.Pages); err != nil {
			return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
	}
	return books, nil
}

func (s *SQLiteStore) SaveBooks(ctx context.Context, books []types.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	for i, b := range books {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO books (position, id, title, author, year, genre, isbn, pages) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, b.ID, b.Title, b.Author, b.Year, b.Genre, b.ISBN, b.Pages)
		if err != nil {
			return apperrors.NewStorageWriteError(s.dbPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	return nil
}

func (s *SQLiteStore) LoadSessions(ctx context.Context) ([]types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM sessions ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
	}
	defer rows.Close()

	sessions := []types.Session{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
		}
		sess := types.NewSession(id)
		if err := json.Unmarshal([]byte(raw), &sess.Data); err != nil {
			return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
		}
		if sess.Data == nil {
			sess.Data = make(map[string]any)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageCorruptionError(s.dbPath, err)
	}
	return sessions, nil
}

func (s *SQLiteStore) SaveSessions(ctx context.Context, sessions []types.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	for i, sess := range sessions {
		data := sess.Data
		if data == nil {
			data = map[string]any{}
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return apperrors.NewStorageWriteError(s.dbPath, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (position, id, data) VALUES (?, ?, ?)`, i, sess.ID, string(raw)); err != nil {
			return apperrors.NewStorageWriteError(s.dbPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageWriteError(s.dbPath, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
