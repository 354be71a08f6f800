package textutil

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Giraffe", "giraffe"},
		{"collapses whitespace", "  ice   cream ", "ice cream"},
		{"composes accents", "café", "café"},
		{"unifies apostrophes", "don’t", "don't"},
		{"folds sharp s", "straße", "strasse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeAnswer(tc.input); got != tc.want {
				t.Errorf("NormalizeAnswer(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestAnswersMatch(t *testing.T) {
	if !AnswersMatch("café", "Café") {
		t.Error("expected decomposed uppercase form to match")
	}
	if AnswersMatch("giraffe", "girafe") {
		t.Error("misspelling must not match")
	}
}

func TestSanitizeSegment(t *testing.T) {
	if got := SanitizeSegment("child/1"); got != "child-1" {
		t.Errorf("expected path separator replaced, got %q", got)
	}
	if got := SanitizeSegment("  \x00 "); got != "unknown" {
		t.Errorf("expected fallback for empty segment, got %q", got)
	}
	if got := SanitizeSegment("word-7"); got != "word-7" {
		t.Errorf("expected clean segment unchanged, got %q", got)
	}
}
