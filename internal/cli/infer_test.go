package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	out, _, err := execute(t, "", "--format", "json", "infer", "--rules", ruleFile("family.yaml"),
		nodeFile("family.json"), nodeFile("janet.json"))
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   InferResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	// Two nicknames and a Match each way between Jane and Janet, every one
	// with its Inference, plus the two rules.
	assert.Equal(t, InferResult{Rules: 2, Rounds: 2, Fired: 4, Added: 10, Nodes: 16}, resp.Data)
}

func TestInfer_Text(t *testing.T) {
	out, _, err := execute(t, "", "infer", "--rules", ruleFile("family.yaml"), nodeFile("family.json"))
	require.NoError(t, err)
	assert.Equal(t, "✓ 2 rule(s) fired 1 time(s) over 2 round(s), 4 node(s) added, 8 stored\n", out)
}

func TestInfer_JournalsAndResumes(t *testing.T) {
	db := filepath.Join(t.TempDir(), "family.db")
	_, _, err := execute(t, "", "--db", db, "validate", nodeFile("family.json"))
	require.NoError(t, err)

	// validate never journals, so the source is unknown here.
	_, _, err = execute(t, "", "--db", db, "infer", "--rules", ruleFile("family.yaml"), nodeFile("janet.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, "", "--db", db, "infer", "--rules", ruleFile("family.yaml"), nodeFile("family.json"))
	require.NoError(t, err)

	// The journal now holds the input and what was derived from it, so a
	// second run adds nothing but the rules, which are already stored.
	out, _, err := execute(t, "", "--db", db, "--format", "json", "infer", "--rules", ruleFile("family.yaml"))
	require.NoError(t, err)
	var resp struct {
		Data InferResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, InferResult{Rules: 2, Rounds: 1, Fired: 0, Added: 0, Nodes: 8}, resp.Data)
}

func TestInfer_QuotaKeepsPartialResults(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "family.db")
	exported := filepath.Join(dir, "out.json")

	out, _, err := execute(t, "", "--db", db, "--format", "json", "infer",
		"--rules", ruleFile("runaway.yaml"), "--max-steps", "3", "-o", exported, nodeFile("family.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQuotaExceeded, resp.Error.Code)

	_, err = os.Stat(exported)
	require.NoError(t, err, "the graph is written even when the run stops early")

	// Four input nodes, the rule, and three firings of three nodes each.
	out, _, err = execute(t, "", "--db", db, "export", "--standalone")
	require.NoError(t, err)
	assert.Equal(t, 4+1+3*3, countLines(out))
}

func TestInfer_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - name: x\n    antecedents: [{\"!class\": Thing}]\n"), 0o644))

	tests := []struct {
		name     string
		rules    string
		wantCode string
		wantExit int
	}{
		{"missing rule file", filepath.Join(dir, "absent.yaml"), ErrCodeReadFailed, ExitCommandError},
		{"rule without consequents", bad, ErrCodeSchema, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", "--format", "json", "infer", "--rules", tt.rules, nodeFile("family.json"))
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	_, _, err := execute(t, "", "infer", nodeFile("family.json"))
	require.Error(t, err, "--rules is required")
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
