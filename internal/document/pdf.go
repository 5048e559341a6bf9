package document

import (
	"bytes"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	rpdf "rsc.io/pdf"
)

// readStructure returns the page count and bookmark tree from the catalog.
func readStructure(data []byte) (n int, bookmarks []Bookmark, err error) {
	defer recoverInto(&err)
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil, err
	}
	return doc.NumPage(), convertOutline(doc.Outline().Child), nil
}

func convertOutline(items []rpdf.Outline) []Bookmark {
	var out []Bookmark
	for _, o := range items {
		title := strings.TrimSpace(o.Title)
		if title == "" && len(o.Child) == 0 {
			continue
		}
		out = append(out, Bookmark{Title: title, Children: convertOutline(o.Child)})
	}
	return out
}

func extractPages(data []byte, logger *zap.Logger) (pages []string, err error) {
	defer recoverInto(&err)
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	n := r.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		pages[i-1] = pageText(r.Page(i), i, logger)
	}
	return pages, nil
}

func pageText(p lpdf.Page, num int, logger *zap.Logger) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("page text extraction panicked", zap.Int("page", num), zap.Any("panic", r))
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		logger.Warn("failed to extract page text", zap.Int("page", num), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(t)
}

// Both PDF readers panic on some malformed inputs.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}
