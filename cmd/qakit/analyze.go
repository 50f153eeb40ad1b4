package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"qakit/internal/core"
	"qakit/internal/jsonutil"
	"qakit/pkg/schema"
)

func runAnalyze(a *app, args []string) error {
	fs := a.newFlagSet("analyze")
	rule := fs.String("rule", "", "rule text (default: -file or stdin)")
	file := fs.String("file", "", "read the rule from this file")
	categories := fs.String("categories", "all", "comma separated categories: positive,negative,boundary,security,regression")
	target := fs.String("target", "both", "backend, frontend or both")
	format := fs.String("format", "json", "output format: json, yaml or gherkin")
	save := fs.Bool("save", false, "save the suite to the data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := *rule
	if text == "" {
		data, err := a.readInput(*file)
		if err != nil {
			return fmt.Errorf("read rule: %w", err)
		}
		text = string(data)
	}
	req, err := analyzeRequest(text, *categories, *target, *save)
	if err != nil {
		return err
	}

	suite, err := a.orch.Analyze(context.Background(), req)
	if err != nil {
		return err
	}
	return a.printSuite(suite, *format)
}

func analyzeRequest(rule, categories, target string, save bool) (core.AnalyzeRequest, error) {
	flags, err := schema.ParseCategoryFlags(categories)
	if err != nil {
		return core.AnalyzeRequest{}, err
	}
	return core.AnalyzeRequest{
		Rule:       rule,
		Categories: flags,
		Target:     schema.Surface(target),
		Save:       save,
	}, nil
}

func (a *app) printSuite(suite *schema.Suite, format string) error {
	var out []byte
	var err error
	switch format {
	case "json":
		out, err = jsonutil.MarshalNoEscapeIndent(suite)
		out = append(out, '\n')
	case "yaml":
		out, err = yaml.Marshal(suite)
	case "gherkin":
		var text string
		text, err = a.orch.Gherkin(context.Background(), suite.Cases, suite.Feature)
		out = []byte(text + "\n")
	default:
		return fmt.Errorf("unsupported format %q (want json, yaml or gherkin)", format)
	}
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(out)
	return err
}

func runBatch(a *app, args []string) error {
	fs := a.newFlagSet("batch")
	root := fs.String("root", ".", "directory to search")
	var globs stringList
	fs.Var(&globs, "glob", "doublestar pattern relative to -root, repeatable (default **/*.rule)")
	categories := fs.String("categories", "all", "comma separated categories")
	target := fs.String("target", "both", "backend, frontend or both")
	save := fs.Bool("save", false, "save each suite to the data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(globs) == 0 {
		globs = stringList{"**/*.rule"}
	}

	req, err := analyzeRequest("", *categories, *target, *save)
	if err != nil {
		return err
	}
	results, err := a.orch.AnalyzeFiles(context.Background(), *root, globs, req)
	if err != nil {
		return err
	}

	out, err := jsonutil.MarshalNoEscapeIndent(results)
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(append(out, '\n')); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// runGherkin renders a suite file (.json, .yaml) or a saved suite id.
func runGherkin(a *app, args []string) error {
	fs := a.newFlagSet("gherkin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one suite file or suite id")
	}
	ref := fs.Arg(0)

	var suite *schema.Suite
	if data, err := os.ReadFile(ref); err == nil {
		suite, err = parseSuite(ref, data)
		if err != nil {
			return err
		}
	} else if strings.HasPrefix(ref, schema.SuiteIDPrefix) {
		suite, err = a.orch.ReadSuite(ref)
		if err != nil {
			return err
		}
	} else {
		return err
	}

	text, err := a.orch.Gherkin(context.Background(), suite.Cases, suite.Feature)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, text)
	return err
}

func parseSuite(path string, data []byte) (*schema.Suite, error) {
	var suite schema.Suite
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := schema.ValidateSuiteDocument(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &suite, nil
	}
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &suite, nil
}

func runSuites(a *app, args []string) error {
	fs := a.newFlagSet("suites")
	history := fs.Bool("history", false, "print the change log instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	if *history {
		events, err := a.orch.History()
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TIME\tEVENT\tSUITE\tCASES")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Timestamp.Format(time.RFC3339), e.Type, e.SuiteID, e.CaseCount)
		}
		return tw.Flush()
	}

	suites, err := a.orch.ListSuites()
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tCREATED\tTARGET\tCASES\tFEATURE")
	for _, s := range suites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Target, len(s.Cases), s.Feature)
	}
	return tw.Flush()
}
