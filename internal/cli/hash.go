package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NodeList is a list of nodes in command output, one per line in text mode.
type NodeList []NodeSummary

func (l NodeList) String() string {
	lines := make([]string, len(l))
	for i, n := range l {
		lines[i] = n.String()
	}
	return strings.Join(lines, "\n")
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [file]...",
		Short: "Print the identity of every node in the input",
		Long: `Parse node files and print the class and content identity of each node,
in input order. Reads standard input when no file is given.

Examples:
  polygenea hash people.json
  cat people.json | polygenea hash`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			return runHash(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runHash(opts *RootOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ns, err := s.ingest(cmd, files)
	if err != nil {
		return err
	}
	return s.out.Success(NodeList(summarize(ns)))
}
