package testgen

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, drops combining marks and lowercases the result,
// so "Obrigatório" and "obrigatorio" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// uniqFold trims values, drops blanks and removes duplicates under
// Normalize. The first spelling seen wins.
func uniqFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		clean := strings.TrimSpace(v)
		if clean == "" {
			continue
		}
		key := Normalize(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
	}
	return out
}

// containsAny reports whether the normalized text holds any keyword.
func containsAny(normalized string, keywords []string) bool {
	for _, k := range keywords {
		if k = Normalize(k); k != "" && strings.Contains(normalized, k) {
			return true
		}
	}
	return false
}

// slug turns a value into a Gherkin tag body.
func slug(value string) string {
	s := nonSlugChars.ReplaceAllString(Normalize(value), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "tag"
	}
	return s
}
