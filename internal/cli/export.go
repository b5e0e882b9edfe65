package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polygenea/internal/node"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Standalone bool
	Output     string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [file]...",
		Short: "Write the stored nodes in dependency order",
		Long: `Load node files (and the journal given with --db) and write every node.

The default form is one compressed list where references are positions of
earlier elements. With --standalone each node is written on its own line with
its identity, references as identity strings.

Examples:
  polygenea export --db family.db
  polygenea export --standalone people.json sources.json
  polygenea export --db family.db -o family.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Standalone, "standalone", false, "one stand-alone node per line")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.ingest(cmd, files); err != nil {
		return err
	}

	data, err := exportBytes(s, opts.Standalone)
	if err != nil {
		return s.out.Fail(ErrCodeGeneric, "failed to serialize", err)
	}

	if opts.Output != "" {
		if err := writeOutput(s.out, opts.Output, data); err != nil {
			return err
		}
		return s.out.Success(fmt.Sprintf("wrote %d node(s) to %s", s.graph.Len(), opts.Output))
	}

	if opts.Format == "json" {
		if opts.Standalone {
			var lines []json.RawMessage
			for _, line := range bytes.Split(bytes.TrimSuffix(data, []byte("\n")), []byte("\n")) {
				if len(line) > 0 {
					lines = append(lines, json.RawMessage(line))
				}
			}
			return s.out.Success(lines)
		}
		return s.out.Success(json.RawMessage(data))
	}
	_, err = s.out.Writer.Write(data)
	return err
}

func exportBytes(s *session, standalone bool) ([]byte, error) {
	if !standalone {
		data, err := s.graph.Serialize()
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	for _, n := range s.graph.TopologicalOrder() {
		text, err := node.Standalone(n)
		if err != nil {
			return nil, err
		}
		buf.Write(text)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
