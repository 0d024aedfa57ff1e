package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/jotter/internal/apperr"
	"github.com/starford/jotter/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at DESC);
`

// SQLite implements Provider on a SQLite database file.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Ping checks that the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// List returns every note ordered by updated_at, newest first.
func (s *SQLite) List(ctx context.Context) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, content, updated_at
		FROM notes
		ORDER BY updated_at DESC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: list scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Get returns a single note.
func (s *SQLite) Get(ctx context.Context, id models.ID) (*models.Note, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, content, updated_at FROM notes WHERE id = ?
	`, id.String())
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: get %s: %w", id, err)
	}
	return &n, nil
}

// Create inserts a new note row.
func (s *SQLite) Create(ctx context.Context, n models.Note) error {
	ts := n.UpdatedAt.UTC()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID.String(), n.Title, n.Content, ts, ts)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", n.ID, err)
	}
	return nil
}

// Update overwrites an existing note row.
func (s *SQLite) Update(ctx context.Context, n models.Note) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?
	`, n.Title, n.Content, n.UpdatedAt.UTC(), n.ID.String())
	if err != nil {
		return fmt.Errorf("storage: update %s: %w", n.ID, err)
	}
	return requireAffected(res)
}

// Delete removes a note row.
func (s *SQLite) Delete(ctx context.Context, id models.ID) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (models.Note, error) {
	var (
		n         models.Note
		id        string
		updatedAt time.Time
	)
	if err := sc.Scan(&id, &n.Title, &n.Content, &updatedAt); err != nil {
		return models.Note{}, err
	}
	n.ID = models.ID(id)
	n.UpdatedAt = models.NewTimestamp(updatedAt.UTC())
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
