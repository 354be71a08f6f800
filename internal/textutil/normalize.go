package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var answerFolder = cases.Fold()

// NormalizeAnswer canonicalizes a typed spelling answer for comparison:
// Unicode NFC composition, case folding, and whitespace collapse. Apostrophe
// variants are unified so a curly quote from a mobile keyboard still matches.
func NormalizeAnswer(answer string) string {
	composed := norm.NFC.String(answer)
	folded := answerFolder.String(composed)
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '‘', '’', 'ʼ':
			return '\''
		default:
			return r
		}
	}, folded)
	return strings.Join(strings.Fields(replaced), " ")
}

// AnswersMatch reports whether a typed answer matches the expected word after
// normalization.
func AnswersMatch(expected, typed string) bool {
	return NormalizeAnswer(expected) == NormalizeAnswer(typed)
}

// SanitizeSegment makes a value safe for use as an object-path segment:
// control characters and path separators are stripped, and the result is
// trimmed. Returns "unknown" when nothing survives.
func SanitizeSegment(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('-')
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
