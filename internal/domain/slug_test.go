package domain

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Neon Drift", "neon_drift"},
		{"  Midnight / Tokyo!! ", "midnight_tokyo"},
		{"UPPER lower 123", "upper_lower_123"},
		{"___already___clean___", "already_clean"},
		{"émoji 🔥 trap", "moji_trap"},
		{strings.Repeat("a", 80), strings.Repeat("a", 60)},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugEmptyFallsBackToUnique(t *testing.T) {
	a := Slug("")
	b := Slug("!!!")
	if !strings.HasPrefix(a, "untitled_") || len(a) != len("untitled_")+6 {
		t.Fatalf("unexpected fallback slug %q", a)
	}
	if a == b {
		t.Fatalf("fallback slugs should be unique, got %q twice", a)
	}
}

func TestSlugCapDropsTrailingSeparator(t *testing.T) {
	in := strings.Repeat("ab ", 40) // separator lands on the cap boundary
	got := Slug(in)
	if strings.HasSuffix(got, "_") {
		t.Fatalf("slug %q ends with separator", got)
	}
	if len(got) > 60 {
		t.Fatalf("slug %q exceeds cap", got)
	}
}
