package testgen

import (
	"regexp"
	"strings"
)

var (
	behaviorHint = regexp.MustCompile(`deve|quando|entao|nao pode|retornar|validar|aceitar|rejeitar|must|should|required|given|when|then`)
	bulletItem   = regexp.MustCompile(`[-*]\s+`)
	numberedItem = regexp.MustCompile(`\b\d+[.)]\s+`)
)

// InScope reports whether rule reads like a functional business rule.
// Two vocabulary hits are enough; a single hit also needs a behavioral
// verb or list structure.
func (e *Engine) InScope(rule string) bool {
	normalized := Normalize(rule)
	if strings.TrimSpace(normalized) == "" {
		return false
	}

	hits := 0
	for _, term := range e.scopeTerms {
		if strings.Contains(normalized, term) {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}
	if hits == 0 {
		return false
	}

	return behaviorHint.MatchString(normalized) ||
		bulletItem.MatchString(rule) ||
		numberedItem.MatchString(rule)
}
