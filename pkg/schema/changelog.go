package schema

import "time"

// SuiteEventType names a change recorded in the changelog.
type SuiteEventType string

const (
	EventSuiteSaved   SuiteEventType = "suite_saved"
	EventSuiteDeleted SuiteEventType = "suite_deleted"
)

// SuiteEvent is one changelog entry.
type SuiteEvent struct {
	EventID   string         `json:"event_id" yaml:"event_id"`
	Type      SuiteEventType `json:"type" yaml:"type"`
	SuiteID   string         `json:"suite_id" yaml:"suite_id"`
	Feature   string         `json:"feature" yaml:"feature"`
	CaseCount int            `json:"case_count" yaml:"case_count"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Changelog is the append-only event log stored next to the suites.
type Changelog struct {
	Events []SuiteEvent `json:"events" yaml:"events"`
}
