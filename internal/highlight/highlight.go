// Package highlight stores text highlights and their notes per document.
package highlight

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultColor is the marker yellow used when no colour is given.
const DefaultColor = "#ffeb3b"

// ErrEmptyText is returned when a highlight has no text after trimming.
var ErrEmptyText = errors.New("highlight text is empty")

// Highlight is a marked passage on one page of a document.
type Highlight struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Page       int       `json:"page"`
	Color      string    `json:"color"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"timestamp"`
}

// New builds a highlight with a fresh id and timestamp.
func New(documentID, text string, page int, color string) (Highlight, error) {
	h := Highlight{DocumentID: documentID, Text: text, Page: page, Color: color}
	if err := h.normalize(); err != nil {
		return Highlight{}, err
	}
	return h, nil
}

// NewID returns a fresh, time-ordered highlight id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (h *Highlight) normalize() error {
	h.Text = strings.TrimSpace(h.Text)
	if h.Text == "" {
		return ErrEmptyText
	}
	if h.Color == "" {
		h.Color = DefaultColor
	}
	if h.ID == "" {
		h.ID = NewID()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Store persists highlights. Lists are ordered by creation time.
type Store interface {
	Add(ctx context.Context, h Highlight) (Highlight, error)
	Remove(ctx context.Context, id string) error
	UpdateNote(ctx context.Context, id, note string) (Highlight, error)
	List(ctx context.Context, documentID string) ([]Highlight, error)
	ForPage(ctx context.Context, documentID string, page int) ([]Highlight, error)
	Close() error
}
