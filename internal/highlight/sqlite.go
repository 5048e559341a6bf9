package highlight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLite persists highlights in a local database file.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path. A single
// connection serializes writers.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("highlight: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: logger}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("highlight store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLite) init(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS highlights (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			text        TEXT NOT NULL,
			page        INTEGER NOT NULL,
			color       TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_doc_page ON highlights(document_id, page)`,
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("highlight: create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Add(ctx context.Context, h Highlight) (Highlight, error) {
	if err := h.normalize(); err != nil {
		return Highlight{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO highlights (id, document_id, text, page, color, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			text        = excluded.text,
			page        = excluded.page,
			color       = excluded.color,
			note        = excluded.note
	`, h.ID, h.DocumentID, h.Text, h.Page, h.Color, h.Note, h.CreatedAt.UnixNano())
	if err != nil {
		return Highlight{}, fmt.Errorf("highlight: insert: %w", err)
	}
	return h, nil
}

func (s *SQLite) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("highlight: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *SQLite) UpdateNote(ctx context.Context, id, note string) (Highlight, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE highlights SET note = ? WHERE id = ?`, note, id)
	if err != nil {
		return Highlight{}, fmt.Errorf("highlight: update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Highlight{}, apperr.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	h, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Highlight{}, apperr.ErrNotFound
	}
	return h, err
}

func (s *SQLite) List(ctx context.Context, documentID string) ([]Highlight, error) {
	return s.query(ctx, selectCols+` WHERE document_id = ? ORDER BY created_at, rowid`, documentID)
}

func (s *SQLite) ForPage(ctx context.Context, documentID string, page int) ([]Highlight, error) {
	return s.query(ctx, selectCols+` WHERE document_id = ? AND page = ? ORDER BY created_at, rowid`, documentID, page)
}

func (s *SQLite) Close() error { return s.db.Close() }

const selectCols = `SELECT id, document_id, text, page, color, note, created_at FROM highlights`

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Highlight, error) {
	var h Highlight
	var created int64
	if err := r.Scan(&h.ID, &h.DocumentID, &h.Text, &h.Page, &h.Color, &h.Note, &created); err != nil {
		return Highlight{}, err
	}
	h.CreatedAt = time.Unix(0, created).UTC()
	return h, nil
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]Highlight, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("highlight: query: %w", err)
	}
	defer rows.Close()

	out := make([]Highlight, 0)
	for rows.Next() {
		h, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("highlight: scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
