package document

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9\-]+`)

// Slug turns a file name or title into a stable, URL-safe identifier.
func Slug(s string) string {
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "/", "-", ".", "-", "_", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "document"
	}
	return s
}
