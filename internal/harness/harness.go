package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/polygenea/internal/engine"
	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/rulebook"
	"github.com/roach88/polygenea/internal/store"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger handed to the graph, engine and journal.
// Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Harness is the scenario execution engine.
type Harness struct {
	graph  *graph.Store
	logger *slog.Logger
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if the run and every assertion matched.
	Pass bool

	// Report is what the engine did.
	Report engine.Report

	// Err is the error the run stopped with, if any.
	Err error

	// Errors lists every expectation and assertion that failed.
	Errors []string

	// Graph is the final graph.
	Graph *graph.Store
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh graph and a fresh in-memory journal.
// A run that stops with an error is not itself a failure; the scenario's
// expect clause decides. The returned error is reserved for scenarios
// that cannot be run at all: unreadable or invalid node and rule files,
// or a journal failure.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	h.graph = graph.New(graph.WithLogger(h.logger))

	for _, path := range scenario.Nodes {
		if err := h.ingest(path); err != nil {
			return nil, err
		}
	}
	entries, err := rulebook.Load(scenario.Rules, rulebook.WithRegistry(h.graph.Registry()))
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	engineOpts := []engine.Option{engine.WithLogger(h.logger)}
	if scenario.MaxSteps > 0 {
		engineOpts = append(engineOpts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	report, runErr := engine.New(h.graph, engineOpts...).Run(ctx, rulebook.Rules(entries)...)

	result := &Result{Pass: true, Report: report, Err: runErr, Graph: h.graph}
	checkExpect(result, scenario.Expect)
	// The journal check runs even when the run was cancelled.
	if err := h.checkJournal(context.WithoutCancel(ctx), result); err != nil {
		return nil, err
	}
	for i, a := range scenario.Assertions {
		if err := evaluate(h.graph, a); err != nil {
			result.AddError("assertions[%d]: %v", i, err)
		}
	}
	return result, nil
}

func (h *Harness) ingest(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read nodes: %w", err)
	}
	defer f.Close()
	if _, err := h.graph.IngestReader(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// checkJournal writes the graph to a journal and replays it into a fresh
// graph, which must serialize byte for byte like the original.
func (h *Harness) checkJournal(ctx context.Context, result *Result) error {
	j, err := store.Open(":memory:", store.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	if _, err := j.Sync(ctx, h.graph); err != nil {
		return fmt.Errorf("failed to journal graph: %w", err)
	}
	replayed := graph.New(graph.WithLogger(h.logger), graph.WithRegistry(h.graph.Registry()))
	if _, err := j.Replay(ctx, replayed); err != nil {
		return fmt.Errorf("failed to replay journal: %w", err)
	}

	want, err := h.graph.Serialize()
	if err != nil {
		return err
	}
	got, err := replayed.Serialize()
	if err != nil {
		return err
	}
	if string(want) != string(got) {
		result.AddError("journal replay: graph of %d node(s) replayed as %d node(s) with different text",
			h.graph.Len(), replayed.Len())
	}
	return nil
}

func checkExpect(result *Result, expect *ExpectClause) {
	if expect == nil {
		expect = &ExpectClause{}
	}

	got := errorCode(result.Err)
	switch {
	case expect.Error == "" && result.Err != nil:
		result.AddError("run: unexpected error: %v", result.Err)
	case expect.Error != "" && got != expect.Error:
		result.AddError("run: expected error %s, got %q", expect.Error, got)
	}

	count := func(name string, want *int, got int) {
		if want != nil && *want != got {
			result.AddError("run: expected %s %d, got %d", name, *want, got)
		}
	}
	count("rounds", expect.Rounds, result.Report.Rounds)
	count("fired", expect.Fired, result.Report.Fired)
	count("added", expect.Added, result.Report.Added)
}

// errorCode names the category of err: an ir error code, an engine rule
// error code, the context error, or the error text.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	var re *engine.RuleError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	case errors.Is(err, context.DeadlineExceeded):
		return "DEADLINE_EXCEEDED"
	}
	return err.Error()
}
