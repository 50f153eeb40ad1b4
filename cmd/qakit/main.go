// Command qakit generates QA test cases from business rules and bundles the
// supporting QA utilities (hashing, webhook signing, mock data, payloads).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"qakit/internal/core"
	"qakit/internal/repository"
	"qakit/internal/testgen"
)

const (
	exitOK         = 0
	exitError      = 1
	exitOutOfScope = 2
)

// app carries the wiring shared by subcommands.
type app struct {
	cfg    *core.Config
	logger core.Logger
	engine *testgen.Engine
	repo   *repository.Repository
	orch   *core.Orchestrator

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"analyze", "generate a test suite from a rule", runAnalyze},
	{"batch", "analyze every rule file matching glob patterns", runBatch},
	{"gherkin", "render a suite file or saved suite id as Gherkin", runGherkin},
	{"suites", "list saved suites", runSuites},
	{"serve", "start the HTTP API", runServe},
	{"hash", "hash text", runHash},
	{"hmac", "compute an HMAC", runHMAC},
	{"webhook", "sign (and optionally send) a webhook delivery", runWebhook},
	{"payloads", "print security payloads", runPayloads},
	{"mock", "fill a JSON template with fake data", runMock},
	{"compress", "gzip or lz4 a file", runCompress},
	{"json", "pretty-print, minify or convert JSON to YAML", runJSON},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitError
		}
		return exitOK
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "qakit: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitError
	}

	a, err := newApp(stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "qakit: %v\n", err)
		return exitError
	}

	err = cmd.run(a, args[1:])
	var oos *core.OutOfScopeError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &oos):
		fmt.Fprintln(stderr, oos.Message)
		return exitOutOfScope
	default:
		fmt.Fprintf(stderr, "qakit %s: %v\n", cmd.name, err)
		return exitError
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := core.NewLoggerTo(stderr, cfg.LogLevel)

	tables := testgen.DefaultTables()
	if cfg.TablesPath != "" {
		tables, err = testgen.LoadTables(cfg.TablesPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded generator tables", "path", cfg.TablesPath)
	}
	engine := testgen.New(tables)

	repo := repository.NewRepository(cfg.DataDir)
	return &app{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		repo:   repo,
		orch:   core.NewOrchestrator(core.NewLocalGenerator(engine), repo, logger),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qakit <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'qakit <command> -h' for command flags.")
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("qakit "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// readInput reads path, or stdin when path is "" or "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is "" or "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// textArg joins positional args, falling back to stdin.
func (a *app) textArg(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
