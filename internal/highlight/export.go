package highlight

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// exportFile is the on-disk shape of an export. It is also what Import
// accepts, so files round-trip between installations.
type exportFile struct {
	Highlights      []Highlight `json:"highlights"`
	ExportDate      time.Time   `json:"exportDate"`
	TotalHighlights int         `json:"totalHighlights"`
}

// Export writes highlights as indented JSON.
func Export(w io.Writer, hs []Highlight, now time.Time) error {
	if hs == nil {
		hs = []Highlight{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportFile{Highlights: hs, ExportDate: now.UTC(), TotalHighlights: len(hs)})
}

// ExportFilename is the suggested download name for an export made at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("highlights_%s.json", now.UTC().Format("2006-01-02"))
}

// Import reads an export. A file without a highlights array yields no
// highlights and no error; entries with empty text are skipped.
func Import(r io.Reader) ([]Highlight, error) {
	var f struct {
		Highlights []Highlight `json:"highlights"`
	}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("highlight: decode import: %w", err)
	}
	out := make([]Highlight, 0, len(f.Highlights))
	for _, h := range f.Highlights {
		if err := h.normalize(); err != nil {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
