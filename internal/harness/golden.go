package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/polygenea/internal/ir"
)

// Summary renders the parts of a result that do not depend on assigned
// identities: the report, the error code, and how many nodes of each
// variant the final graph holds. It is canonical text.
func Summary(name string, result *Result) ([]byte, error) {
	counts := ir.IRObject{}
	for _, n := range result.Graph.Sorted() {
		c, _ := counts[n.Class()].(ir.IRInt)
		counts[n.Class()] = c + 1
	}
	snapshot := ir.IRObject{
		"scenario": ir.IRString(name),
		"report": ir.IRObject{
			"rounds": ir.IRInt(result.Report.Rounds),
			"fired":  ir.IRInt(result.Report.Fired),
			"added":  ir.IRInt(result.Report.Added),
		},
		"nodes": counts,
	}
	if code := errorCode(result.Err); code != "" {
		snapshot["error"] = ir.IRString(code)
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden runs a scenario, fails t for every failed expectation, and
// compares the run summary against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	summary, err := Summary(scenario.Name, result)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, summary)
	return result
}
