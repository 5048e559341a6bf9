package highlight

import (
	"context"
	"slices"
	"sync"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
)

// Memory keeps highlights in process.
type Memory struct {
	mu    sync.RWMutex
	items []Highlight
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Add(_ context.Context, h Highlight) (Highlight, error) {
	if err := h.normalize(); err != nil {
		return Highlight{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(h.ID); i >= 0 {
		m.items[i] = h
		return h, nil
	}
	m.items = append(m.items, h)
	return h, nil
}

func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	m.items = slices.Delete(m.items, i, i+1)
	return nil
}

func (m *Memory) UpdateNote(_ context.Context, id, note string) (Highlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return Highlight{}, apperr.ErrNotFound
	}
	m.items[i].Note = note
	return m.items[i], nil
}

func (m *Memory) List(_ context.Context, documentID string) ([]Highlight, error) {
	return m.filter(func(h Highlight) bool { return h.DocumentID == documentID }), nil
}

func (m *Memory) ForPage(_ context.Context, documentID string, page int) ([]Highlight, error) {
	return m.filter(func(h Highlight) bool { return h.DocumentID == documentID && h.Page == page }), nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) find(id string) int {
	return slices.IndexFunc(m.items, func(h Highlight) bool { return h.ID == id })
}

func (m *Memory) filter(keep func(Highlight) bool) []Highlight {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Highlight, 0)
	for _, h := range m.items {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}
