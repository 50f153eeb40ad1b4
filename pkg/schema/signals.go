package schema

// Lengths holds the size constraints mined from a rule. Nil means absent.
type Lengths struct {
	Min   *int `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *int `json:"max,omitempty" yaml:"max,omitempty"`
	Exact *int `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// Codes holds the HTTP status codes the rule expects.
type Codes struct {
	Success int `json:"success" yaml:"success"`
	Error   int `json:"error" yaml:"error"`
}

// Signals are the structured facts extracted from one rule text.
type Signals struct {
	Fields      []string `json:"fields" yaml:"fields"`
	Required    []string `json:"required" yaml:"required"`
	Lengths     Lengths  `json:"lengths" yaml:"lengths"`
	Codes       Codes    `json:"codes" yaml:"codes"`
	HasUnique   bool     `json:"has_unique" yaml:"has_unique"`
	HasAuth     bool     `json:"has_auth" yaml:"has_auth"`
	HasEmail    bool     `json:"has_email" yaml:"has_email"`
	HasPhone    bool     `json:"has_phone" yaml:"has_phone"`
	HasDocument bool     `json:"has_document" yaml:"has_document"`
}

// FocusField is the field security payloads are injected into.
func (s Signals) FocusField(fallback string) string {
	if len(s.Required) > 0 {
		return s.Required[0]
	}
	if len(s.Fields) > 0 {
		return s.Fields[0]
	}
	return fallback
}
