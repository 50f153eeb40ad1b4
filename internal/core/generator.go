package core

import (
	"context"

	"qakit/internal/testgen"
	"qakit/pkg/schema"
)

// Generator abstracts the case generator so the orchestrator can be tested
// without the heuristic engine.
type Generator interface {
	Analyze(ctx context.Context, rule string, flags schema.CategoryFlags, surface schema.Surface) (testgen.Result, error)
	FeatureName(rule string) string
	RenderGherkin(cases []schema.TestCase, feature string) string
}

// LocalGenerator runs the in-process heuristic engine.
type LocalGenerator struct {
	engine *testgen.Engine
}

// NewLocalGenerator wraps engine as a Generator.
func NewLocalGenerator(engine *testgen.Engine) *LocalGenerator {
	return &LocalGenerator{engine: engine}
}

func (g *LocalGenerator) Analyze(ctx context.Context, rule string, flags schema.CategoryFlags, surface schema.Surface) (testgen.Result, error) {
	if err := ctx.Err(); err != nil {
		return testgen.Result{}, err
	}
	return g.engine.Analyze(rule, flags, surface), nil
}

func (g *LocalGenerator) FeatureName(rule string) string {
	return g.engine.FeatureName(rule)
}

func (g *LocalGenerator) RenderGherkin(cases []schema.TestCase, feature string) string {
	return g.engine.RenderGherkin(cases, feature)
}

// MockGenerator is a Generator with canned results and call counters.
type MockGenerator struct {
	Result  testgen.Result
	Err     error
	Feature string
	Gherkin string

	AnalyzeCalls int
	RenderCalls  int
	LastRule     string
	LastFlags    schema.CategoryFlags
	LastSurface  schema.Surface
}

// NewMockGenerator returns a mock that yields one positive case.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Result: testgen.Result{
			Cases: []schema.TestCase{{
				ID: schema.CaseID(1),
				Draft: schema.Draft{
					Kind:          schema.CategoryPositive,
					Surface:       schema.SurfaceBackend,
					Category:      "Positivo",
					Priority:      schema.PriorityHigh,
					Title:         "[Backend] Fluxo valido com retorno de sucesso",
					Objective:     "Validar caminho feliz de API com dados corretos.",
					Preconditions: []string{},
					Steps:         []string{"Executar envio."},
					Expected:      "Retorno de sucesso com status 200.",
				},
			}},
			Signals: schema.Signals{
				Fields:   []string{},
				Required: []string{},
				Codes:    schema.Codes{Success: 200, Error: 400},
			},
		},
		Feature: "Mock feature",
		Gherkin: "Feature: Mock feature",
	}
}

func (m *MockGenerator) Analyze(ctx context.Context, rule string, flags schema.CategoryFlags, surface schema.Surface) (testgen.Result, error) {
	m.AnalyzeCalls++
	m.LastRule = rule
	m.LastFlags = flags
	m.LastSurface = surface
	if m.Err != nil {
		return testgen.Result{}, m.Err
	}
	return m.Result, nil
}

func (m *MockGenerator) FeatureName(string) string {
	return m.Feature
}

func (m *MockGenerator) RenderGherkin(cases []schema.TestCase, feature string) string {
	m.RenderCalls++
	if len(cases) == 0 {
		return ""
	}
	return m.Gherkin
}
