package document

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const snippetRadius = 50

// Match is one search hit. Index is a byte offset into the page text with
// whitespace collapsed.
type Match struct {
	Page    int    `json:"page"`
	Index   int    `json:"index"`
	Term    string `json:"term"`
	Snippet string `json:"snippet"`
}

// Search finds every case-insensitive occurrence of term. The term is
// matched literally.
func (d *Document) Search(term string) []Match {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))

	var out []Match
	for i, raw := range d.Pages {
		text := strings.Join(strings.Fields(raw), " ")
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Match{
				Page:    i + 1,
				Index:   loc[0],
				Term:    text[loc[0]:loc[1]],
				Snippet: snippet(text, loc[0], loc[1]),
			})
		}
	}
	return out
}

func snippet(text string, start, end int) string {
	from := max(0, start-snippetRadius)
	to := min(len(text), end+snippetRadius)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

// Cursor walks search results, wrapping at both ends.
type Cursor struct {
	matches []Match
	idx     int
}

// NewCursor positions at the first match, or at -1 when there are none.
func NewCursor(matches []Match) *Cursor {
	c := &Cursor{matches: matches, idx: -1}
	if len(matches) > 0 {
		c.idx = 0
	}
	return c
}

func (c *Cursor) Len() int   { return len(c.matches) }
func (c *Cursor) Index() int { return c.idx }

// Current returns the match under the cursor.
func (c *Cursor) Current() (Match, bool) {
	if c.idx < 0 {
		return Match{}, false
	}
	return c.matches[c.idx], true
}

// Next advances, wrapping to the first match after the last.
func (c *Cursor) Next() (Match, bool) {
	if len(c.matches) == 0 {
		return Match{}, false
	}
	c.idx = (c.idx + 1) % len(c.matches)
	return c.matches[c.idx], true
}

// Prev steps back, wrapping to the last match before the first.
func (c *Cursor) Prev() (Match, bool) {
	if len(c.matches) == 0 {
		return Match{}, false
	}
	c.idx = (c.idx - 1 + len(c.matches)) % len(c.matches)
	return c.matches[c.idx], true
}
