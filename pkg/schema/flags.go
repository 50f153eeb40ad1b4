package schema

import (
	"fmt"
	"strings"
)

// CategoryFlags selects which categories the synthesizer emits.
type CategoryFlags struct {
	Positive   bool `json:"positive" yaml:"positive"`
	Negative   bool `json:"negative" yaml:"negative"`
	Boundary   bool `json:"boundary" yaml:"boundary"`
	Security   bool `json:"security" yaml:"security"`
	Regression bool `json:"regression" yaml:"regression"`
}

// AllCategoryFlags enables every category.
func AllCategoryFlags() CategoryFlags {
	return CategoryFlags{Positive: true, Negative: true, Boundary: true, Security: true, Regression: true}
}

// Enabled reports whether c is switched on.
func (f CategoryFlags) Enabled(c Category) bool {
	switch c {
	case CategoryPositive:
		return f.Positive
	case CategoryNegative:
		return f.Negative
	case CategoryBoundary:
		return f.Boundary
	case CategorySecurity:
		return f.Security
	case CategoryRegression:
		return f.Regression
	}
	return false
}

// Any reports whether at least one category is enabled.
func (f CategoryFlags) Any() bool {
	return f.Positive || f.Negative || f.Boundary || f.Security || f.Regression
}

// ParseCategoryFlags parses a comma separated list such as "positive,boundary".
// "all" or an empty string enables everything.
func ParseCategoryFlags(value string) (CategoryFlags, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return AllCategoryFlags(), nil
	}

	var flags CategoryFlags
	for _, part := range strings.Split(value, ",") {
		name := Category(strings.ToLower(strings.TrimSpace(part)))
		switch name {
		case "":
			continue
		case CategoryPositive:
			flags.Positive = true
		case CategoryNegative:
			flags.Negative = true
		case CategoryBoundary:
			flags.Boundary = true
		case CategorySecurity:
			flags.Security = true
		case CategoryRegression:
			flags.Regression = true
		default:
			return CategoryFlags{}, fmt.Errorf("unknown category %q", part)
		}
	}
	return flags, nil
}
