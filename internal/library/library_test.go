package library

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/pdftest"
	"github.com/thywilljoshua/pdf-reader/internal/sse"
)

type recorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recorder) Publish(ev sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) PublishThrottled(_ string, ev sse.Event) { r.Publish(ev) }

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestPutGetList(t *testing.T) {
	rec := &recorder{}
	l, err := New("", rec, nil)
	require.NoError(t, err)

	l.Put(&document.Document{ID: "zeta", Name: "zeta.pdf"})
	l.Put(&document.Document{ID: "alpha", Name: "alpha.pdf"})

	d, err := l.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha.pdf", d.Name)

	_, err = l.Get("missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, 2, rec.count(EventAdded))

	require.NoError(t, l.Remove("alpha"))
	assert.ErrorIs(t, l.Remove("alpha"), apperr.ErrNotFound)
	assert.Equal(t, 1, rec.count(EventRemoved))
	assert.Equal(t, 1, l.Len())
}

func TestAdd_WritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, nil, nil)
	require.NoError(t, err)

	doc, err := l.Add("../Report Draft", pdftest.Minimal("first page", "second page"))
	require.NoError(t, err)
	assert.Equal(t, "report-draft", doc.ID)
	assert.Equal(t, "Report Draft.pdf", doc.Name)
	assert.Equal(t, 2, doc.NumPages())
	assert.FileExists(t, filepath.Join(dir, "Report Draft.pdf"))

	require.NoError(t, l.Remove(doc.ID))
	assert.NoFileExists(t, filepath.Join(dir, "Report Draft.pdf"))
}

func TestAdd_CollidingNames(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	l, err := New(dir, rec, nil)
	require.NoError(t, err)

	first, err := l.Add("My Paper.pdf", pdftest.Minimal("first"))
	require.NoError(t, err)
	second, err := l.Add("my_paper.pdf", pdftest.Minimal("second"))
	require.NoError(t, err)

	assert.Equal(t, "my-paper", first.ID)
	assert.Equal(t, "my-paper-2", second.ID)
	assert.Equal(t, 2, l.Len())

	got, err := l.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Paper.pdf", got.Name)

	// Uploading the same name again replaces it under the same id.
	again, err := l.Add("my_paper.pdf", pdftest.Minimal("second, revised"))
	require.NoError(t, err)
	assert.Equal(t, second.ID, again.ID)
	assert.Equal(t, 2, l.Len())

	require.NoError(t, l.Remove(first.ID))
	assert.NoFileExists(t, filepath.Join(dir, "My Paper.pdf"))
	assert.FileExists(t, filepath.Join(dir, "my_paper.pdf"))
	got, err = l.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "my_paper.pdf", got.Name)
}

func TestAdd_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, nil, nil)
	require.NoError(t, err)

	_, err = l.Add("notes.pdf", []byte("just text"))
	assert.ErrorIs(t, err, document.ErrNotPDF)
	assert.NoFileExists(t, filepath.Join(dir, "notes.pdf"))
	assert.Equal(t, 0, l.Len())
}

func TestLoad_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.pdf"), pdftest.Minimal("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644))

	l, err := New(dir, nil, nil)
	require.NoError(t, err)
	require.NoError(t, l.Load())

	assert.Equal(t, 1, l.Len())
	_, err = l.Get("good")
	assert.NoError(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	l, err := New(dir, rec, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.watch(ctx, ready) }()
	<-ready

	path := filepath.Join(dir, "fresh.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Minimal("new"), 0o644))
	require.Eventually(t, func() bool {
		_, err := l.Get("fresh")
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, err := l.Get("fresh")
		return err != nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, rec.count(EventRemoved))

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_RemoveCollidingName(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, nil, nil)
	require.NoError(t, err)
	first, err := l.Add("My Paper.pdf", pdftest.Minimal("first"))
	require.NoError(t, err)
	second, err := l.Add("my_paper.pdf", pdftest.Minimal("second"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- l.watch(ctx, ready) }()
	<-ready

	require.NoError(t, os.Remove(filepath.Join(dir, "my_paper.pdf")))
	require.Eventually(t, func() bool {
		_, err := l.Get(second.ID)
		return err != nil
	}, 3*time.Second, 20*time.Millisecond)

	_, err = l.Get(first.ID)
	assert.NoError(t, err, "the other document stays registered")
	assert.Equal(t, 1, l.Len())

	cancel()
	assert.NoError(t, <-done)
}
