package testgen

import (
	"regexp"
	"strings"

	"qakit/pkg/schema"
)

var ruleLabel = regexp.MustCompile(`(?i)^regra\s*:\s*`)

// FeatureName is the first non-blank line of the rule without a leading
// "Regra:" label.
func (e *Engine) FeatureName(rule string) string {
	for _, line := range strings.Split(rule, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if name := strings.TrimSpace(ruleLabel.ReplaceAllString(line, "")); name != "" {
			return name
		}
		break
	}
	return e.tables.DefaultFeature
}

// ToGherkin renders cases under the feature name derived from featureSource.
func (e *Engine) ToGherkin(cases []schema.TestCase, featureSource string) string {
	return e.RenderGherkin(cases, e.FeatureName(featureSource))
}

// RenderGherkin writes one Scenario per case. It returns "" for no cases.
func (e *Engine) RenderGherkin(cases []schema.TestCase, feature string) string {
	if len(cases) == 0 {
		return ""
	}

	n := e.tables.Narrative
	lines := []string{"Feature: " + feature}
	for _, l := range n.Lines {
		lines = append(lines, "  "+l)
	}

	for _, tc := range cases {
		lines = append(lines,
			"",
			"  @"+slug(tc.Category)+" @"+slug(string(tc.Priority))+" @"+slug(tc.ID),
			"  Scenario: "+tc.ID+" - "+tc.Title,
		)
		lines = appendSteps(lines, "Given", tc.Preconditions, n.DefaultGiven)
		lines = appendSteps(lines, "When", tc.Steps, n.DefaultWhen)
		lines = append(lines, "    Then "+tc.Expected)
	}

	return strings.Join(lines, "\n")
}

func appendSteps(lines []string, keyword string, items []string, fallback string) []string {
	if len(items) == 0 {
		items = []string{fallback}
	}
	for i, item := range items {
		kw := "And"
		if i == 0 {
			kw = keyword
		}
		lines = append(lines, "    "+kw+" "+item)
	}
	return lines
}
