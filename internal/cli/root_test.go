package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	citationID = "8a6b11fd-49af-52f0-8673-7056f0c77287"
	sourceID   = "f67a64b3-53bf-5bf7-bd69-f39afd24e252"
	janeID     = "c5a3e9a4-16b4-4e5b-9d45-0b1e35d14a77"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func nodeFile(name string) string {
	return filepath.Join("testdata", "nodes", name)
}

func ruleFile(name string) string {
	return filepath.Join("testdata", "rules", name)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"validate", "export", "incoming", "infer", "hash"}, names)

	for _, flag := range []string{"verbose", "format", "db"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "", "--format", "xml", "validate", nodeFile("family.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootOptions_Logger(t *testing.T) {
	var buf bytes.Buffer
	(&RootOptions{Format: "json"}).Logger(&buf).Debug("hidden")
	assert.Empty(t, buf.String())

	(&RootOptions{Format: "json", Verbose: true}).Logger(&buf).Debug("shown", "nodes", 4)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"nodes":4`)

	buf.Reset()
	(&RootOptions{Format: "text"}).Logger(&buf).Info("round")
	assert.Contains(t, buf.String(), "msg=round")
}
