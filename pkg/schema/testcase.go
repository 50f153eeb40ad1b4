package schema

// Draft is a candidate test case before deduplication and ID assignment.
type Draft struct {
	Kind          Category `json:"kind" yaml:"kind"`
	Surface       Surface  `json:"surface" yaml:"surface"`
	Category      string   `json:"category" yaml:"category"` // Display label, e.g. "Negativo"
	Priority      Priority `json:"priority" yaml:"priority"`
	Title         string   `json:"title" yaml:"title"`
	Objective     string   `json:"objective" yaml:"objective"`
	Preconditions []string `json:"preconditions" yaml:"preconditions"`
	Steps         []string `json:"steps" yaml:"steps"`
	Expected      string   `json:"expected" yaml:"expected"`
}

// TestCase is a deduplicated draft with its sequential identifier.
type TestCase struct {
	ID    string `json:"id" yaml:"id"`
	Draft `yaml:",inline"`
}
