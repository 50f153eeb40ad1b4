package schema

import (
	"fmt"
	"strings"
)

// Category identifies a family of test cases.
type Category string

const (
	CategoryPositive   Category = "positive"   // Happy path
	CategoryNegative   Category = "negative"   // Rejections and validation errors
	CategoryBoundary   Category = "boundary"   // Length limits
	CategorySecurity   Category = "security"   // Injection payloads
	CategoryRegression Category = "regression" // Baseline re-runs
)

// AllCategories returns every category in synthesis order.
func AllCategories() []Category {
	return []Category{
		CategoryPositive,
		CategoryNegative,
		CategoryBoundary,
		CategorySecurity,
		CategoryRegression,
	}
}

// Surface is the layer a test case exercises.
type Surface string

const (
	SurfaceBackend  Surface = "backend"  // API level
	SurfaceFrontend Surface = "frontend" // UI level
	SurfaceBoth     Surface = "both"
)

// ParseSurface converts user input into a Surface.
func ParseSurface(value string) (Surface, error) {
	switch s := Surface(strings.ToLower(strings.TrimSpace(value))); s {
	case SurfaceBackend, SurfaceFrontend, SurfaceBoth:
		return s, nil
	default:
		return "", fmt.Errorf("invalid surface %q (want backend, frontend or both)", value)
	}
}

// Includes reports whether s covers the single surface other.
func (s Surface) Includes(other Surface) bool {
	return s == other || s == SurfaceBoth
}

// Priority is the display priority attached to a test case.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
)

// Limits applied while mining and synthesizing.
const (
	FieldNameMin          = 2
	FieldNameMax          = 35
	RequiredFallbackMax   = 4
	MissingRequiredMax    = 5
	DefaultSuccessStatus  = 200
	DefaultErrorStatus    = 400
	CaseIDPrefix          = "TC-"
	CaseIDWidth           = 3
	SuiteIDPrefix         = "SUITE-"
	EventIDPrefix         = "EVT-"
	GeneratedIDRandomPart = 10
)
