package schema

import "time"

// Suite is the exported and persisted unit: one analyzed rule and its cases.
type Suite struct {
	ID         string        `json:"id" yaml:"id"`
	Feature    string        `json:"feature" yaml:"feature"`
	Rule       string        `json:"rule" yaml:"rule"`
	Target     Surface       `json:"target" yaml:"target"`
	Categories CategoryFlags `json:"categories" yaml:"categories"`
	Signals    Signals       `json:"signals" yaml:"signals"`
	Cases      []TestCase    `json:"cases" yaml:"cases"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
}

// CountByCategory tallies cases per display label.
func (s *Suite) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, tc := range s.Cases {
		counts[tc.Category]++
	}
	return counts
}
