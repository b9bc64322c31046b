package metadata

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// StaticGenerator derives metadata from the prompt itself. It is fully
// deterministic, which makes it both the offline fallback and the fixture
// provider in tests.
type StaticGenerator struct{}

func NewStatic() *StaticGenerator {
	return &StaticGenerator{}
}

var _ Generator = (*StaticGenerator)(nil)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "of": true,
	"the": true, "with": true, "to": true, "in": true, "on": true,
}

func (s *StaticGenerator) Generate(ctx context.Context, prompt string) (*domain.BeatMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := significantWords(prompt)
	c := cases.Title(language.Und)

	title := "Untitled Beat"
	if len(words) > 0 {
		n := len(words)
		if n > 4 {
			n = 4
		}
		title = c.String(strings.Join(words[:n], " "))
	}

	tags := make([]string, 0, 6)
	for _, w := range words {
		tags = append(tags, w)
		if len(tags) == 5 {
			break
		}
	}
	tags = append(tags, "beat")

	return &domain.BeatMetadata{
		Title:       clampRunes(title, 40),
		Tags:        normalizeTags(tags),
		Description: clampRunes("Instrumental beat: "+strings.TrimSpace(prompt), 160),
	}, nil
}

func significantWords(prompt string) []string {
	fields := strings.Fields(strings.ToLower(prompt))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'()[]{}")
		if len(f) < 3 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
