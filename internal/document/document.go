// Package document loads PDFs and exposes their per-page text, bookmarks
// and search.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
)

// ErrNotPDF is returned for input that does not start with a PDF header.
var ErrNotPDF = errors.New("not a PDF file")

// DefaultContextPages bounds how much text is sent to the model.
const DefaultContextPages = 10

// Bookmark is one entry of the PDF's own outline tree.
type Bookmark struct {
	Title    string     `json:"title"`
	Children []Bookmark `json:"children,omitempty"`
}

// Document is a loaded PDF. Pages are 1-based from the caller's side;
// Pages[0] holds page 1.
type Document struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path,omitempty"`
	Pages     []string   `json:"-"`
	Bookmarks []Bookmark `json:"bookmarks,omitempty"`
	LoadedAt  time.Time  `json:"loaded_at"`
}

// Open reads and loads the PDF at path.
func Open(path string, logger *zap.Logger) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Load(filepath.Base(path), b, logger)
	if err != nil {
		return nil, err
	}
	d.Path = path
	return d, nil
}

// Load parses PDF bytes. Text comes from the content streams page by page;
// the page count and bookmarks come from the document catalog. A page whose
// text cannot be extracted is kept as an empty page.
func Load(name string, data []byte, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	numPages, bookmarks, err := readStructure(data)
	if err != nil {
		logger.Warn("pdf structure unreadable, continuing with text only",
			zap.String("document", name), zap.Error(err))
	}

	pages, err := extractPages(data, logger.With(zap.String("document", name)))
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", name, err)
	}
	for len(pages) < numPages {
		pages = append(pages, "")
	}

	return &Document{
		ID:        Slug(name),
		Name:      name,
		Pages:     pages,
		Bookmarks: bookmarks,
		LoadedAt:  time.Now().UTC(),
	}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int { return len(d.Pages) }

// ValidPage reports whether n is a page of this document.
func (d *Document) ValidPage(n int) bool { return n >= 1 && n <= len(d.Pages) }

// Page returns the text of page n.
func (d *Document) Page(n int) (string, error) {
	if !d.ValidPage(n) {
		return "", fmt.Errorf("page %d out of range 1..%d: %w", n, len(d.Pages), apperr.ErrNotFound)
	}
	return d.Pages[n-1], nil
}

// Context renders the first maxPages pages as "Page N: text" blocks, the
// form in which document text is handed to the assistant.
func (d *Document) Context(maxPages int) string {
	if maxPages <= 0 {
		maxPages = DefaultContextPages
	}
	var b strings.Builder
	for i, p := range d.Pages {
		if i >= maxPages {
			break
		}
		fmt.Fprintf(&b, "Page %d: %s\n\n", i+1, strings.Join(strings.Fields(p), " "))
	}
	return b.String()
}
