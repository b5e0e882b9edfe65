package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeID = "c5a3e9a4-16b4-4e5b-9d45-0b1e35d14a77"

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			result := RunWithGolden(t, scenario)
			assert.True(t, result.Pass, "failures: %v", result.Errors)
		})
	}
}

func writeScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	base, err := filepath.Abs(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	s, err := ParseScenario([]byte(body), base)
	require.NoError(t, err)
	return s
}

func TestRun_ReportsFailures(t *testing.T) {
	s := writeScenario(t, `
name: wrong
description: Every expectation here is off
nodes: [../nodes/family.json]
rules: ../rules/family.yaml
expect:
  error: QUOTA_EXCEEDED
  fired: 7
assertions:
  - type: absent
    pattern: {"!class": Property, key: nickname}
  - type: contains
    pattern: {"!class": Match}
  - type: aliases
    of: `+janeID+`
    count: 2
  - type: incoming
    of: 00000000-0000-0000-0000-000000000001
    count: 0
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.NoError(t, result.Err)
	require.Len(t, result.Errors, 6)

	assert.Equal(t, `run: expected error QUOTA_EXCEEDED, got ""`, result.Errors[0])
	assert.Equal(t, "run: expected fired 7, got 1", result.Errors[1])
	assert.True(t, strings.HasPrefix(result.Errors[2], "assertions[0]: absent: expected no match, got 1 [Property "), result.Errors[2])
	assert.Equal(t, "assertions[1]: contains: expected at least one match, got 0", result.Errors[3])
	assert.Equal(t, "assertions[2]: aliases: expected 2, got 1 [Thing "+janeID+"]", result.Errors[4])
	assert.Contains(t, result.Errors[5], "no stored node has identity")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := writeScenario(t, `
name: unexpected
description: The run stops but nothing said it would
nodes: [../nodes/family.json]
rules: ../rules/runaway.yaml
max_steps: 1
assertions:
  - type: contains
    pattern: {"!class": Connection}
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "run: unexpected error")
	assert.Equal(t, "QUOTA_EXCEEDED", errorCode(result.Err))
}

func TestRun_Cancelled(t *testing.T) {
	s := writeScenario(t, `
name: cancelled
description: A cancelled run reports the context error
nodes: [../nodes/family.json]
rules: ../rules/family.yaml
expect:
  error: CANCELED
  fired: 0
assertions:
  - type: absent
    pattern: {"!class": Inference}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := Run(ctx, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Errors)
}

func TestRun_SetupErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"!class":"Person"}`), 0o644))
	rules, err := filepath.Abs(filepath.Join("testdata", "rules", "family.yaml"))
	require.NoError(t, err)

	s := &Scenario{
		Name:        "bad-nodes",
		Description: "unknown variant",
		Nodes:       []string{bad},
		Rules:       rules,
		Assertions:  []Assertion{{Type: AssertAbsent, Pattern: map[string]any{"!class": "Thing"}}},
	}
	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	badRules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(badRules, []byte("rules: ["), 0o644))
	s.Nodes, s.Rules = nil, badRules
	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Expected: "2", Actual: "1", Matched: []string{"Match a"}}
	assert.Equal(t, "count: expected 2, got 1 [Match a]", err.Error())

	err = &AssertionError{Type: AssertContains, Expected: "at least one match", Actual: "0"}
	assert.Equal(t, "contains: expected at least one match, got 0", err.Error())
}
