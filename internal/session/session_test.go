package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/canvas"
	"github.com/thywilljoshua/pdf-reader/internal/sse"
)

type recorder struct {
	mu        sync.Mutex
	events    []sse.Event
	throttled []string
}

func (r *recorder) Publish(ev sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) PublishThrottled(key string, ev sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.throttled = append(r.throttled, key)
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func nodes() []canvas.Node {
	return []canvas.Node{
		{ID: "a", Title: "A", Position: canvas.Position{X: 0, Y: 0}, Importance: canvas.High, Connections: []string{"b"}},
		{ID: "b", Title: "B", Position: canvas.Position{X: 400, Y: 0}, Importance: canvas.Low},
	}
}

func TestManager_Lifecycle(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	s := m.Create(nodes(), Options{DocumentID: "paper", Source: "demo", Fallback: true})
	info := s.Info()
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, 2, info.Nodes)
	assert.True(t, info.Fallback)

	got, err := m.Get(info.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.Len(t, m.List(), 1)

	require.NoError(t, m.Delete(info.ID))
	_, err = m.Get(info.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, m.Delete(info.ID), apperr.ErrNotFound)

	assert.Equal(t, []string{EventCreated, EventDeleted}, rec.types())
}

func TestManager_PublishesCanvasChanges(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)
	s := m.Create(nodes(), Options{Source: "nodes"})
	id := s.Info().ID

	err := s.Do(func(c *canvas.Canvas) error {
		_, err := c.HandleEvent(canvas.Event{Type: canvas.Wheel, DeltaY: -1})
		if err != nil {
			return err
		}
		c.Select("b")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{EventCreated, EventUpdated, EventUpdated}, rec.types())
	assert.Equal(t, []string{id}, rec.throttled, "only viewport changes are throttled")

	// after delete the canvas no longer reports
	require.NoError(t, m.Delete(id))
	_ = s.Do(func(c *canvas.Canvas) error { c.Select("a"); return nil })
	assert.Len(t, rec.types(), 4)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := NewManager(nil, nil)
	s1 := m.Create(nodes(), Options{})
	s2 := m.Create(nodes(), Options{})

	require.NoError(t, s1.Do(func(c *canvas.Canvas) error {
		_, err := c.HandleEvent(canvas.Event{Type: canvas.Wheel, DeltaY: -1})
		return err
	}))

	var scale1, scale2 float64
	_ = s1.Do(func(c *canvas.Canvas) error { scale1 = c.Viewport().Scale; return nil })
	_ = s2.Do(func(c *canvas.Canvas) error { scale2 = c.Viewport().Scale; return nil })
	assert.InDelta(t, 1.1, scale1, 1e-9)
	assert.InDelta(t, 1.0, scale2, 1e-9)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, s1.Info().ID, list[0].ID)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(&recorder{}, nil)
	s := m.Create(nodes(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Do(func(c *canvas.Canvas) error {
				_, err := c.HandleEvent(canvas.Event{Type: canvas.Wheel, DeltaY: float64(i%2*2 - 1)})
				return err
			})
		}(i)
	}
	wg.Wait()

	_ = s.Do(func(c *canvas.Canvas) error {
		sc := c.Viewport().Scale
		assert.GreaterOrEqual(t, sc, 0.1)
		assert.LessOrEqual(t, sc, 3.0)
		return nil
	})
}

func TestManager_Close(t *testing.T) {
	m := NewManager(nil, nil)
	m.Create(nodes(), Options{})
	m.Create(nodes(), Options{})
	m.Close()
	assert.Empty(t, m.List())
}
