package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool `json:"valid"`
	Files int  `json:"files"`
	Nodes int  `json:"nodes"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %d node(s) valid in %d file(s)", r.Nodes, r.Files)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check node files without storing anything",
		Long: `Parse node files, resolve every reference and validate every node.

References may point into the same file, into earlier files on the command
line, or into the journal given with --db. Nothing is journaled.

Exit codes:
  0 - All nodes valid
  1 - A file holds malformed text or an invalid node
  2 - Command error (unreadable file, journal failure, etc.)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ns, err := s.ingest(cmd, files)
	if err != nil {
		return err
	}
	return s.out.Success(ValidationResult{Valid: true, Files: len(files), Nodes: len(ns)})
}
