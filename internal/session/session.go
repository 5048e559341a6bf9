// Package session keeps the canvases opened over HTTP. Each session owns
// one canvas and serializes access to it.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/canvas"
	"github.com/thywilljoshua/pdf-reader/internal/sse"
)

// Event types published for canvas sessions.
const (
	EventCreated = "canvas.created"
	EventUpdated = "canvas.updated"
	EventDeleted = "canvas.deleted"
)

// Info describes a session without touching its canvas.
type Info struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id,omitempty"`
	Source     string    `json:"source"`
	Fallback   bool      `json:"fallback"`
	Nodes      int       `json:"nodes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is one canvas and the lock guarding it.
type Session struct {
	info Info

	mu     sync.Mutex
	canvas *canvas.Canvas
	unsub  func()
}

func (s *Session) Info() Info { return s.info }

// Do runs fn with exclusive access to the canvas.
func (s *Session) Do(fn func(c *canvas.Canvas) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.canvas)
}

// Options describe a new session.
type Options struct {
	DocumentID string
	Source     string
	Fallback   bool
}

// Manager owns all sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pub      sse.Publisher
	logger   *zap.Logger
}

// NewManager creates an empty manager. pub may be nil.
func NewManager(pub sse.Publisher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{sessions: make(map[string]*Session), pub: pub, logger: logger.Named("session")}
}

// Create opens a canvas over nodes. Viewport changes are published
// throttled per session; selection changes always go out.
func (m *Manager) Create(nodes []canvas.Node, opts Options) *Session {
	id := uuid.Must(uuid.NewV7()).String()
	s := &Session{
		info: Info{
			ID:         id,
			DocumentID: opts.DocumentID,
			Source:     opts.Source,
			Fallback:   opts.Fallback,
			Nodes:      len(nodes),
			CreatedAt:  time.Now().UTC(),
		},
		canvas: canvas.New(nodes),
	}
	s.unsub = s.canvas.Subscribe(func(ch canvas.Change) { m.changed(id, ch) })

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("canvas created",
		zap.String("id", id),
		zap.String("document", opts.DocumentID),
		zap.String("source", opts.Source),
		zap.Int("nodes", len(nodes)),
		zap.Bool("fallback", opts.Fallback),
	)
	m.publish(sse.Event{Type: EventCreated, Data: s.info})
	return s
}

func (m *Manager) changed(id string, ch canvas.Change) {
	if m.pub == nil {
		return
	}
	ev := sse.Event{Type: EventUpdated, Data: map[string]any{
		"id":       id,
		"kind":     ch.Kind,
		"state":    ch.State,
		"selected": ch.Selected,
	}}
	if ch.Kind == canvas.ViewportChanged {
		m.pub.PublishThrottled(id, ev)
		return
	}
	m.pub.Publish(ev)
}

func (m *Manager) publish(ev sse.Event) {
	if m.pub != nil {
		m.pub.Publish(ev)
	}
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

// Delete closes the session's canvas and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apperr.ErrNotFound
	}
	s.close()
	m.logger.Info("canvas deleted", zap.String("id", id))
	m.publish(sse.Event{Type: EventDeleted, Data: map[string]string{"id": id}})
	return nil
}

// List returns every session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsub()
	s.canvas.Close()
}
