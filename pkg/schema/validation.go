package schema

import (
	"fmt"
	"strings"
)

// ValidateSuite checks the invariants the generator guarantees.
func ValidateSuite(s *Suite) error {
	if !strings.HasPrefix(s.ID, SuiteIDPrefix) {
		return fmt.Errorf("suite id must start with %s", SuiteIDPrefix)
	}
	if strings.TrimSpace(s.Feature) == "" {
		return fmt.Errorf("feature is required")
	}
	if _, err := ParseSurface(string(s.Target)); err != nil {
		return err
	}
	if !s.Categories.Any() {
		return fmt.Errorf("at least one category must be enabled")
	}
	return ValidateCases(s.Cases)
}

// ValidateCases checks dense IDs and the (category, title) uniqueness key.
// Keys are compared with strings.ToLower only; callers that need diacritic
// folding dedupe before calling.
func ValidateCases(cases []TestCase) error {
	seen := make(map[string]string, len(cases))
	for i, tc := range cases {
		if want := CaseID(i + 1); tc.ID != want {
			return fmt.Errorf("cases[%d]: id must be %s, got %s", i, want, tc.ID)
		}
		if strings.TrimSpace(tc.Title) == "" {
			return fmt.Errorf("cases[%d]: title is required", i)
		}
		if strings.TrimSpace(tc.Expected) == "" {
			return fmt.Errorf("cases[%d]: expected is required", i)
		}
		key := strings.ToLower(tc.Category) + "|" + strings.ToLower(tc.Title)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("cases[%d]: duplicates %s", i, prev)
		}
		seen[key] = tc.ID
	}
	return nil
}
