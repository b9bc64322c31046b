package domain

import (
	"strings"

	"github.com/google/uuid"
)

const slugMaxLen = 60

// Slug derives a filesystem- and URL-safe name from a title: lowercased,
// runs of non-alphanumerics collapsed to single underscores, trimmed,
// capped at 60 characters. An empty result yields a unique untitled name
// so two blank-titled runs never share a file.
func Slug(title string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
		default:
			pendingSep = true
		}
	}
	s := b.String()
	if len(s) > slugMaxLen {
		s = strings.TrimRight(s[:slugMaxLen], "_")
	}
	if s == "" {
		return "untitled_" + uuid.NewString()[:6]
	}
	return s
}
