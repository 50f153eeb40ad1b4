// Package flows exposes the case generator as Genkit flows so the pipeline
// can be driven from the Genkit developer UI or over HTTP.
package flows

import (
	"context"
	"net/http"

	gcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"qakit/internal/core"
	"qakit/pkg/schema"
)

const (
	AnalyzeFlowName = "analyzeRule"
	GherkinFlowName = "renderGherkin"
)

// AnalyzeInput is the analyzeRule flow input. Categories is a comma separated
// list ("all" or empty selects every category).
type AnalyzeInput struct {
	Rule       string `json:"rule"`
	Categories string `json:"categories,omitempty"`
	Target     string `json:"target,omitempty"`
	Save       bool   `json:"save,omitempty"`
}

// GherkinInput is the renderGherkin flow input.
type GherkinInput struct {
	Cases         []schema.TestCase `json:"cases"`
	FeatureSource string            `json:"feature_source,omitempty"`
}

// Flows holds the registered flows.
type Flows struct {
	Analyze *gcore.Flow[AnalyzeInput, *schema.Suite, struct{}]
	Gherkin *gcore.Flow[GherkinInput, string, struct{}]
}

// Options configures how the analyzeRule flow treats its results.
type Options struct {
	// Persist allows AnalyzeInput.Save to write to the repository. When
	// false, Save is ignored.
	Persist bool
	// OnAnalyze, when set, receives every suite the flow produces.
	OnAnalyze func(*schema.Suite)
}

// Register defines the generator flows on g.
func Register(g *genkit.Genkit, orch *core.Orchestrator, opts Options) *Flows {
	analyze := genkit.DefineFlow(g, AnalyzeFlowName,
		func(ctx context.Context, in AnalyzeInput) (*schema.Suite, error) {
			flags, err := schema.ParseCategoryFlags(in.Categories)
			if err != nil {
				return nil, &core.ValidationError{Field: "categories", Message: err.Error(), Err: err}
			}
			suite, err := orch.Analyze(ctx, core.AnalyzeRequest{
				Rule:       in.Rule,
				Categories: flags,
				Target:     schema.Surface(in.Target),
				Save:       in.Save && opts.Persist,
			})
			if err != nil {
				return nil, err
			}
			if opts.OnAnalyze != nil {
				opts.OnAnalyze(suite)
			}
			return suite, nil
		})

	gherkin := genkit.DefineFlow(g, GherkinFlowName,
		func(ctx context.Context, in GherkinInput) (string, error) {
			return orch.Gherkin(ctx, in.Cases, in.FeatureSource)
		})

	return &Flows{Analyze: analyze, Gherkin: gherkin}
}

// Mount serves each flow at prefix + flow name.
func (f *Flows) Mount(mux *http.ServeMux, prefix string) {
	mux.Handle("POST "+prefix+AnalyzeFlowName, genkit.Handler(f.Analyze))
	mux.Handle("POST "+prefix+GherkinFlowName, genkit.Handler(f.Gherkin))
}
