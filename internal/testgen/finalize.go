package testgen

import "qakit/pkg/schema"

// Finalize drops drafts whose (category, title) pair was already seen,
// comparing case and diacritic insensitively, and numbers the survivors
// TC-001, TC-002, ... in order.
func Finalize(drafts []schema.Draft) []schema.TestCase {
	seen := make(map[string]struct{}, len(drafts))
	cases := make([]schema.TestCase, 0, len(drafts))
	for _, d := range drafts {
		key := Normalize(d.Category) + "|" + Normalize(d.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cases = append(cases, schema.TestCase{
			ID:    schema.CaseID(len(cases) + 1),
			Draft: d,
		})
	}
	return cases
}
