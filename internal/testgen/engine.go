// Package testgen turns free-text business rules into categorized QA test
// cases and renders them as Gherkin.
//
// The pipeline is pure and deterministic:
//
//	InScope -> ExtractSignals -> Synthesize -> Finalize -> RenderGherkin
package testgen

import (
	"qakit/pkg/schema"
)

// Engine runs the generation pipeline over a fixed set of tables.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	tables     Tables
	scopeTerms []string
	stopWords  map[string]struct{}
	backend    wording
	frontend   wording
}

// Result is the outcome of Analyze. OutOfScope results carry no cases.
type Result struct {
	Cases      []schema.TestCase `json:"cases"`
	Signals    schema.Signals    `json:"signals"`
	OutOfScope bool              `json:"out_of_scope"`
	Message    string            `json:"message,omitempty"`
}

// New builds an engine over the given tables.
func New(tables Tables) *Engine {
	e := &Engine{
		tables:    tables,
		stopWords: make(map[string]struct{}, len(tables.StopWords)),
		backend:   backendWording(),
		frontend:  frontendWording(),
	}
	for _, term := range tables.ScopeTerms {
		if n := Normalize(term); n != "" {
			e.scopeTerms = append(e.scopeTerms, n)
		}
	}
	for _, w := range tables.StopWords {
		e.stopWords[Normalize(w)] = struct{}{}
	}
	return e
}

// NewDefault builds an engine over DefaultTables.
func NewDefault() *Engine {
	return New(DefaultTables())
}

// Tables returns the tables the engine was built with.
func (e *Engine) Tables() Tables {
	return e.tables
}

// Analyze classifies the rule and, when it is in scope, extracts signals,
// synthesizes drafts for the requested surface and finalizes them.
// Callers must reject an all-false flags value before calling.
func (e *Engine) Analyze(rule string, flags schema.CategoryFlags, surface schema.Surface) Result {
	if !e.InScope(rule) {
		return Result{
			Cases:      []schema.TestCase{},
			Signals:    emptySignals(),
			OutOfScope: true,
			Message:    e.tables.OutOfScopeMessage,
		}
	}

	signals := e.ExtractSignals(rule)
	drafts := e.Synthesize(signals, flags, surface)
	return Result{
		Cases:   Finalize(drafts),
		Signals: signals,
	}
}

func emptySignals() schema.Signals {
	return schema.Signals{
		Fields:   []string{},
		Required: []string{},
		Codes:    schema.Codes{Success: schema.DefaultSuccessStatus, Error: schema.DefaultErrorStatus},
	}
}
