package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/polygenea/internal/node"
)

// IncomingResult lists the claims that reach a node.
type IncomingResult struct {
	Node     NodeSummary `json:"node"`
	Incoming NodeList    `json:"incoming"`
}

func (r IncomingResult) String() string {
	s := fmt.Sprintf("%s: %d incoming", r.Node, len(r.Incoming))
	for _, n := range r.Incoming {
		s += "\n  " + n.String()
	}
	return s
}

// NewIncomingCommand creates the incoming command.
func NewIncomingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incoming <id> [file]...",
		Short: "List the claims that refer to a node or to its aliases",
		Long: `Load node files (and the journal given with --db) and list every stored
node that refers to the node with the given identity, directly or through a
Match that declares it the same as another node.

Examples:
  polygenea incoming c5a3e9a4-16b4-4e5b-9d45-0b1e35d14a77 --db family.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIncoming(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runIncoming(opts *RootOptions, rawID string, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := uuid.Parse(rawID)
	if err != nil {
		return s.out.Fail(ErrCodeBadArgument, "invalid node id", err)
	}
	if _, err := s.ingest(cmd, files); err != nil {
		return err
	}

	n, ok := s.graph.Get(id)
	if !ok {
		msg := fmt.Sprintf("no stored node has identity %s", id)
		_ = s.out.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitFailure, ErrCodeNotFound+": "+msg)
	}
	return s.out.Success(IncomingResult{
		Node:     summarize([]node.Node{n})[0],
		Incoming: summarize(s.graph.Incoming(n)),
	})
}
