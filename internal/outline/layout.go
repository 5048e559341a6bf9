package outline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thywilljoshua/pdf-reader/internal/canvas"
	"github.com/thywilljoshua/pdf-reader/internal/document"
)

// ErrNoBookmarks is returned for documents without a bookmark tree.
var ErrNoBookmarks = errors.New("outline: document has no bookmarks")

// Column layout for structural outlines.
const (
	marginX   = 60.0
	marginY   = 60.0
	columnGap = 300.0
	rowGap    = 140.0
)

type section struct {
	Number   string
	Title    string
	Page     int
	Depth    int
	Children []*section
}

// buildHierarchy nests a flat, depth-annotated list. A numbered entry only
// nests under an entry whose number prefixes its own; otherwise it climbs
// until it finds one or becomes a root.
func buildHierarchy(flat []section) []*section {
	var roots, stack []*section
	for i := range flat {
		s := &flat[i]
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.Depth < s.Depth && isParent(top, s) {
				break
			}
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, s)
		} else {
			p := stack[len(stack)-1]
			p.Children = append(p.Children, s)
		}
		stack = append(stack, s)
	}
	return roots
}

func isParent(p, c *section) bool {
	if p.Number == "" || c.Number == "" {
		return true
	}
	return strings.HasPrefix(c.Number, p.Number+".")
}

// layout places a section tree in columns by tree level, one row per entry
// in reading order. Parents link to their children and consecutive top-level
// sections link to each other.
func layout(roots []*section) []canvas.Node {
	var nodes []canvas.Node
	var walk func(s *section, level int) string
	walk = func(s *section, level int) string {
		id := fmt.Sprintf("n%d", len(nodes)+1)
		idx := len(nodes)
		nodes = append(nodes, canvas.Node{
			ID:         id,
			Title:      strings.TrimSpace(s.Number + " " + s.Title),
			Page:       s.Page,
			Position:   canvas.Position{X: marginX + float64(level-1)*columnGap, Y: marginY + float64(idx)*rowGap},
			Importance: importanceAt(level),
		})
		for _, c := range s.Children {
			child := walk(c, level+1)
			nodes[idx].Connections = append(nodes[idx].Connections, child)
		}
		return id
	}

	var prev string
	for _, r := range roots {
		id := walk(r, 1)
		if prev != "" {
			for i := range nodes {
				if nodes[i].ID == prev {
					nodes[i].Connections = append(nodes[i].Connections, id)
					break
				}
			}
		}
		prev = id
	}
	return nodes
}

func importanceAt(level int) canvas.Importance {
	switch level {
	case 1:
		return canvas.High
	case 2:
		return canvas.Medium
	}
	return canvas.Low
}

// FromBookmarks lays out the PDF's own bookmark tree. A maxDepth of zero
// keeps three levels.
func FromBookmarks(bookmarks []document.Bookmark, maxDepth int) ([]canvas.Node, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	roots := fromBookmarks(bookmarks, 1, maxDepth)
	if len(roots) == 0 {
		return nil, ErrNoBookmarks
	}
	return layout(roots), nil
}

func fromBookmarks(bms []document.Bookmark, depth, maxDepth int) []*section {
	if depth > maxDepth {
		return nil
	}
	var out []*section
	for _, b := range bms {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}
		out = append(out, &section{Title: title, Depth: depth, Children: fromBookmarks(b.Children, depth+1, maxDepth)})
	}
	return out
}
