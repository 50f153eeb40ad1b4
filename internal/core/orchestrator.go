package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"qakit/internal/repository"
	"qakit/pkg/schema"
)

// AnalyzeRequest is one generation request.
type AnalyzeRequest struct {
	Rule       string               `json:"rule"`
	Categories schema.CategoryFlags `json:"categories"`
	Target     schema.Surface       `json:"target"`
	Save       bool                 `json:"save"`
}

// FileResult is the outcome for one rule file in a batch.
type FileResult struct {
	Path       string        `json:"path"`
	Suite      *schema.Suite `json:"suite,omitempty"`
	OutOfScope bool          `json:"out_of_scope,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Orchestrator validates requests, runs the generator, builds suites and
// persists them when asked.
type Orchestrator struct {
	generator Generator
	repo      *repository.Repository
	logger    Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. repo may be nil, in which case
// saving and suite lookups fail with a ValidationError.
func NewOrchestrator(generator Generator, repo *repository.Repository, logger Logger) *Orchestrator {
	if logger == nil {
		logger = NopLogger()
	}
	return &Orchestrator{
		generator: generator,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze runs the pipeline for req and returns the resulting suite.
// Out-of-scope rules yield an *OutOfScopeError.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (*schema.Suite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Rule) == "" {
		return nil, &ValidationError{Field: "rule", Message: "rule text is required"}
	}
	if !req.Categories.Any() {
		return nil, &ValidationError{Field: "categories", Message: "select at least one category"}
	}
	target := req.Target
	if target == "" {
		target = schema.SurfaceBoth
	}
	target, err := schema.ParseSurface(string(target))
	if err != nil {
		return nil, &ValidationError{Field: "target", Message: err.Error(), Err: err}
	}

	res, err := o.generator.Analyze(ctx, req.Rule, req.Categories, target)
	if err != nil {
		return nil, fmt.Errorf("generate cases: %w", err)
	}
	if res.OutOfScope {
		o.logger.Info("rule out of scope", "rule_length", len(req.Rule))
		return nil, &OutOfScopeError{Message: res.Message}
	}

	id, err := schema.NewSuiteID()
	if err != nil {
		return nil, fmt.Errorf("generate suite id: %w", err)
	}
	suite := &schema.Suite{
		ID:         id,
		Feature:    o.generator.FeatureName(req.Rule),
		Rule:       req.Rule,
		Target:     target,
		Categories: req.Categories,
		Signals:    res.Signals,
		Cases:      res.Cases,
		CreatedAt:  o.now().UTC(),
	}
	if err := schema.ValidateSuite(suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	if err := schema.ValidateSuiteContract(suite); err != nil {
		return nil, err
	}

	if req.Save {
		if err := o.save(suite); err != nil {
			return nil, err
		}
	}

	o.logger.Info("suite generated",
		"suite_id", suite.ID,
		"target", string(target),
		"cases", len(suite.Cases),
		"saved", req.Save,
	)
	return suite, nil
}

// Gherkin renders cases under the feature name derived from featureSource.
// An empty case list renders to "".
func (o *Orchestrator) Gherkin(ctx context.Context, cases []schema.TestCase, featureSource string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return o.generator.RenderGherkin(cases, o.generator.FeatureName(featureSource)), nil
}

// SuiteGherkin renders a saved suite.
func (o *Orchestrator) SuiteGherkin(ctx context.Context, id string) (string, error) {
	s, err := o.ReadSuite(id)
	if err != nil {
		return "", err
	}
	return o.Gherkin(ctx, s.Cases, s.Feature)
}

// AnalyzeFiles analyzes every file under root matching one of patterns.
// Files are processed in lexical order; a failing file is recorded and the
// batch continues. Cancellation stops the batch between files.
func (o *Orchestrator) AnalyzeFiles(ctx context.Context, root string, patterns []string, req AnalyzeRequest) ([]FileResult, error) {
	paths, err := matchFiles(root, patterns)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(paths))
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := FileResult{Path: rel}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		fileReq := req
		fileReq.Rule = string(data)
		suite, err := o.Analyze(ctx, fileReq)
		switch {
		case errors.Is(err, ErrOutOfScope):
			result.OutOfScope = true
		case err != nil:
			result.Error = err.Error()
			o.logger.Warn("batch file failed", "path", rel, "error", err)
		default:
			result.Suite = suite
		}
		results = append(results, result)
	}

	o.logger.Info("batch finished", "root", root, "files", len(results))
	return results, nil
}

// ListSuites returns saved suites.
func (o *Orchestrator) ListSuites() ([]*schema.Suite, error) {
	if err := o.requireRepo(); err != nil {
		return nil, err
	}
	suites, err := o.repo.ListSuites()
	if err != nil {
		return nil, &StorageError{Operation: "list", Path: o.repo.BaseDir(), Err: err}
	}
	return suites, nil
}

// ReadSuite returns one saved suite. A missing suite unwraps to
// repository.ErrSuiteNotFound.
func (o *Orchestrator) ReadSuite(id string) (*schema.Suite, error) {
	if err := o.requireRepo(); err != nil {
		return nil, err
	}
	s, err := o.repo.ReadSuite(id)
	if err != nil {
		return nil, &StorageError{Operation: "read", Path: id, Err: err}
	}
	return s, nil
}

// DeleteSuite removes a saved suite.
func (o *Orchestrator) DeleteSuite(id string) error {
	if err := o.requireRepo(); err != nil {
		return err
	}
	if err := o.repo.DeleteSuite(id); err != nil {
		return o.wrapWriteError("delete", err)
	}
	o.logger.Info("suite deleted", "suite_id", id)
	return nil
}

// History returns the repository changelog.
func (o *Orchestrator) History() ([]schema.SuiteEvent, error) {
	if err := o.requireRepo(); err != nil {
		return nil, err
	}
	events, err := o.repo.History()
	if err != nil {
		return nil, &StorageError{Operation: "history", Path: o.repo.BaseDir(), Err: err}
	}
	return events, nil
}

func (o *Orchestrator) save(s *schema.Suite) error {
	if err := o.requireRepo(); err != nil {
		return err
	}
	if err := o.repo.SaveSuite(s); err != nil {
		return o.wrapWriteError("save", err)
	}
	o.logger.Debug("suite saved", "suite_id", s.ID, "dir", o.repo.BaseDir())
	return nil
}

func (o *Orchestrator) wrapWriteError(op string, err error) error {
	if errors.Is(err, repository.ErrLocked) {
		return &LockError{Operation: "acquire", Message: err.Error(), Err: err}
	}
	return &StorageError{Operation: op, Path: o.repo.BaseDir(), Err: err}
}

func (o *Orchestrator) requireRepo() error {
	if o.repo == nil {
		return &ValidationError{Field: "repository", Message: "no suite repository configured"}
	}
	return nil
}

// matchFiles walks root and returns slash separated relative paths that
// match any pattern, sorted and without duplicates.
func matchFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, &ValidationError{Field: "patterns", Message: "at least one glob pattern is required"}
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, &ValidationError{Field: "patterns", Message: fmt.Sprintf("invalid glob %q", p)}
		}
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, p := range patterns {
			if ok, _ := doublestar.Match(filepath.ToSlash(p), rel); ok {
				matches = append(matches, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, &StorageError{Operation: "walk", Path: root, Err: err}
	}

	sort.Strings(matches)
	return matches, nil
}
