package schema

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewSuiteID generates a new suite ID in format SUITE-{nanoid(10)}.
func NewSuiteID() (string, error) {
	id, err := gonanoid.New(GeneratedIDRandomPart)
	if err != nil {
		return "", err
	}
	return SuiteIDPrefix + id, nil
}

// NewEventID generates a new event ID in format EVT-{nanoid(10)}.
func NewEventID() (string, error) {
	id, err := gonanoid.New(GeneratedIDRandomPart)
	if err != nil {
		return "", err
	}
	return EventIDPrefix + id, nil
}

// CaseID formats the 1-based position of a surviving case, e.g. TC-007.
func CaseID(position int) string {
	return fmt.Sprintf("%s%0*d", CaseIDPrefix, CaseIDWidth, position)
}
