package outline

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/thywilljoshua/pdf-reader/internal/canvas"
)

// ErrNoToC is returned when no table of contents entries are found.
var ErrNoToC = errors.New("outline: no table of contents found")

// DefaultToCPages is how many leading pages are scanned for a table of contents.
const DefaultToCPages = 8

// Entry shapes: numeric (1.2), roman (IV, II.3), single-letter appendix (A.1)
// and an explicit "Appendix" prefix.
var (
	tocNumRe      = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\.?\s+(.+?)\s+(\d+)\s*$`)
	tocRomanRe    = regexp.MustCompile(`^\s*([IVXLCDM]+)(?:\.([0-9]+))?\.?\s+(.+?)\s+(\d+)\s*$`)
	tocAlphaRe    = regexp.MustCompile(`^\s*([A-Z](?:\.[0-9]+)*)\s+(.+?)\s+(\d+)\s*$`)
	tocAppendixRe = regexp.MustCompile(`^\s*(?:Appendix|APPENDIX)\s+([A-Z](?:\.[0-9]+)*)\s+(.+?)\s+(\d+)\s*$`)
	tocHeaderRe   = regexp.MustCompile(`(?im)\btable of contents\b|^\s*contents\s*$`)
	dotLeaderRe   = regexp.MustCompile(`(?:\s*\.){3,}\s*`)
)

type tocEntry struct {
	Number string
	Title  string
	Page   int
	Depth  int
}

// FromToC finds the table of contents in the first pages of a document and
// lays its entries out as nodes. Entries deeper than maxDepth are dropped; a
// maxDepth of zero keeps three levels.
func FromToC(pages []string, maxDepth int) ([]canvas.Node, error) {
	entries := parseToCLines(findToCLines(pages, DefaultToCPages))
	if len(entries) == 0 {
		return nil, ErrNoToC
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}
	flat := make([]section, 0, len(entries))
	for _, e := range entries {
		if e.Depth > maxDepth {
			continue
		}
		flat = append(flat, section{Number: e.Number, Title: e.Title, Page: e.Page, Depth: e.Depth})
	}
	return layout(buildHierarchy(flat)), nil
}

// findToCLines prefers pages carrying a "Contents" header and the pages that
// directly continue them; without a header it takes every entry-shaped line
// from the first n pages.
func findToCLines(pages []string, n int) []string {
	if n <= 0 {
		n = DefaultToCPages
	}
	limit := min(n, len(pages))

	start := -1
	for i := 0; i < limit; i++ {
		if tocHeaderRe.MatchString(pages[i]) {
			start = i
			break
		}
	}
	if start >= 0 {
		lines := tocLinesOf(pages[start])
		for i := start + 1; i < limit; i++ {
			more := tocLinesOf(pages[i])
			if len(more) == 0 {
				break
			}
			lines = append(lines, more...)
		}
		if len(lines) > 0 {
			return lines
		}
	}

	var out []string
	for i := 0; i < limit; i++ {
		out = append(out, tocLinesOf(pages[i])...)
	}
	return out
}

func tocLinesOf(page string) []string {
	var out []string
	for _, ln := range strings.Split(page, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" && isToCLine(ln) {
			out = append(out, ln)
		}
	}
	return out
}

func parseToCLines(lines []string) []tocEntry {
	var out []tocEntry
	for _, line := range lines {
		if e, ok := matchToC(normalizeDotLeaders(line)); ok {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

func matchToC(line string) (tocEntry, bool) {
	entry := func(num, title, page string) (tocEntry, bool) {
		p, err := strconv.Atoi(page)
		if err != nil {
			return tocEntry{}, false
		}
		return tocEntry{Number: num, Title: strings.TrimSpace(title), Page: p, Depth: strings.Count(num, ".") + 1}, true
	}
	if m := tocAppendixRe.FindStringSubmatch(line); m != nil {
		return entry(m[1], m[2], m[3])
	}
	if m := tocNumRe.FindStringSubmatch(line); m != nil {
		return entry(m[1], m[2], m[3])
	}
	if m := tocAlphaRe.FindStringSubmatch(line); m != nil {
		return entry(m[1], m[2], m[3])
	}
	if m := tocRomanRe.FindStringSubmatch(line); m != nil {
		num := m[1]
		if m[2] != "" {
			num += "." + m[2]
		}
		return entry(num, m[3], m[4])
	}
	return tocEntry{}, false
}

func isToCLine(s string) bool {
	_, ok := matchToC(normalizeDotLeaders(s))
	return ok
}

func normalizeDotLeaders(s string) string {
	r := strings.NewReplacer("•", " ", "·", " ", "…", " ")
	s = r.Replace(s)
	s = dotLeaderRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
