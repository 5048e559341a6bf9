// Package library keeps the set of loaded documents, backed by a directory
// of PDF files that is watched for changes.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/sse"
)

// Event types published for documents.
const (
	EventAdded   = "document.added"
	EventRemoved = "document.removed"
)

const settle = 200 * time.Millisecond

// Library is the registry of loaded documents. With an empty directory it
// only holds what is put into it.
type Library struct {
	dir    string
	pub    sse.Publisher
	logger *zap.Logger

	mu   sync.RWMutex
	docs map[string]*document.Document
}

// New creates a library over dir, creating the directory if needed. pub may
// be nil.
func New(dir string, pub sse.Publisher, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("library: create %s: %w", dir, err)
		}
	}
	return &Library{dir: dir, pub: pub, logger: logger.Named("library"), docs: make(map[string]*document.Document)}, nil
}

// Dir is the backing directory, or "" for a memory-only library.
func (l *Library) Dir() string { return l.dir }

// Load reads every PDF in the directory. Files that fail to load are
// logged and skipped.
func (l *Library) Load() error {
	if l.dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(l.dir, "*"))
	if err != nil {
		return err
	}
	for _, p := range matches {
		if isPDF(p) {
			l.loadFile(p)
		}
	}
	l.logger.Info("library loaded", zap.String("dir", l.dir), zap.Int("documents", l.Len()))
	return nil
}

func (l *Library) loadFile(path string) {
	doc, err := document.Open(path, l.logger)
	if err != nil {
		l.logger.Warn("skip document", zap.String("path", path), zap.Error(err))
		return
	}
	l.Put(doc)
}

// Add stores an uploaded PDF in the directory and registers it. A document
// with the same name is replaced; see Put for how ids stay unique.
func (l *Library) Add(name string, data []byte) (*document.Document, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "document.pdf"
	}
	if !isPDF(name) {
		name += ".pdf"
	}
	doc, err := document.Load(name, data, l.logger)
	if err != nil {
		return nil, err
	}
	if l.dir != "" {
		path := filepath.Join(l.dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("library: save %s: %w", name, err)
		}
		doc.Path = path
	}
	l.Put(doc)
	return doc, nil
}

// Put registers a loaded document. A document with the same name is
// replaced and keeps its id. A different name whose id is already taken
// gets a numeric suffix ("my-paper-2").
func (l *Library) Put(doc *document.Document) {
	l.mu.Lock()
	l.assign(doc)
	l.docs[doc.ID] = doc
	l.mu.Unlock()
	l.logger.Debug("document registered", zap.String("id", doc.ID), zap.Int("pages", doc.NumPages()))
	l.publish(sse.Event{Type: EventAdded, Data: map[string]any{"id": doc.ID, "name": doc.Name, "pages": doc.NumPages()}})
}

// assign sets doc.ID to the id of the registered document with the same
// name, or to the first free variant of its slug. l.mu must be held.
func (l *Library) assign(doc *document.Document) {
	for id, d := range l.docs {
		if d.Name == doc.Name {
			doc.ID = id
			return
		}
	}
	base := doc.ID
	for n := 2; ; n++ {
		if _, taken := l.docs[doc.ID]; !taken {
			return
		}
		doc.ID = fmt.Sprintf("%s-%d", base, n)
	}
}

func (l *Library) Get(id string) (*document.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

// List returns all documents ordered by name.
func (l *Library) List() []*document.Document {
	l.mu.RLock()
	out := make([]*document.Document, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, d)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

// Remove forgets a document and deletes its file.
func (l *Library) Remove(id string) error {
	d, ok := l.drop(id)
	if !ok {
		return fmt.Errorf("document %q: %w", id, apperr.ErrNotFound)
	}
	if d.Path != "" {
		if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("library: delete %s: %w", d.Path, err)
		}
	}
	return nil
}

func (l *Library) drop(id string) (*document.Document, bool) {
	l.mu.Lock()
	d, ok := l.docs[id]
	delete(l.docs, id)
	l.mu.Unlock()
	if ok {
		l.publish(sse.Event{Type: EventRemoved, Data: map[string]string{"id": id}})
	}
	return d, ok
}

// dropPath forgets the document loaded from path.
func (l *Library) dropPath(path string) (string, bool) {
	l.mu.RLock()
	id := ""
	for k, d := range l.docs {
		if d.Path == path {
			id = k
			break
		}
	}
	l.mu.RUnlock()
	if id == "" {
		return "", false
	}
	_, ok := l.drop(id)
	return id, ok
}

func (l *Library) publish(ev sse.Event) {
	if l.pub != nil {
		l.pub.Publish(ev)
	}
}

// Watch follows the directory until ctx is cancelled. New or rewritten PDFs
// are (re)loaded once writes settle; removed or renamed ones are dropped.
func (l *Library) Watch(ctx context.Context) error {
	return l.watch(ctx, nil)
}

func (l *Library) watch(ctx context.Context, ready chan<- struct{}) error {
	if l.dir == "" {
		if ready != nil {
			close(ready)
		}
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(l.dir); err != nil {
		return fmt.Errorf("library: watch %s: %w", l.dir, err)
	}
	l.logger.Info("watcher started", zap.String("dir", l.dir))
	if ready != nil {
		close(ready)
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("watcher stopped")
			return nil

		case <-timer.C:
			for p := range pending {
				l.loadFile(p)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isPDF(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[ev.Name] = struct{}{}
				timer.Reset(settle)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
				if id, ok := l.dropPath(ev.Name); ok {
					l.logger.Debug("document dropped", zap.String("id", id))
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
