package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/store"
)

// session is what a command works on: a graph store, seeded from the
// journal when --db is given.
type session struct {
	out     *OutputFormatter
	logger  *slog.Logger
	graph   *graph.Store
	journal *store.Journal
}

func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger(cmd.ErrOrStderr())
	s := &session{
		out:    out,
		logger: logger,
		graph:  graph.New(graph.WithLogger(logger)),
	}
	if opts.Database == "" {
		return s, nil
	}

	j, err := store.Open(opts.Database, store.WithLogger(logger))
	if err != nil {
		return nil, out.Fail(ErrCodeJournal, "failed to open journal", err)
	}
	if _, err := j.Replay(cmd.Context(), s.graph); err != nil {
		j.Close()
		return nil, out.Fail(ErrCodeJournal, "failed to replay journal", err)
	}
	s.journal = j
	return s, nil
}

func (s *session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// ingest reads node files into the graph in order and returns the nodes
// they held. "-" reads standard input.
func (s *session) ingest(cmd *cobra.Command, files []string) ([]node.Node, error) {
	var all []node.Node
	for _, file := range files {
		ns, err := s.ingestFile(cmd.InOrStdin(), file)
		if err != nil {
			return nil, err
		}
		s.out.VerboseLog("%s: %d node(s)", file, len(ns))
		all = append(all, ns...)
	}
	return all, nil
}

func (s *session) ingestFile(stdin io.Reader, file string) ([]node.Node, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, s.out.Fail(ErrCodeReadFailed, "failed to read nodes", err)
		}
		defer f.Close()
		r = f
	}
	ns, err := s.graph.IngestReader(r)
	if err != nil {
		return nil, s.out.Fail(ErrCodeReadFailed, file, err)
	}
	return ns, nil
}

// persist journals the graph when --db is set.
func (s *session) persist(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	written, err := s.journal.Sync(ctx, s.graph)
	if err != nil {
		return s.out.Fail(ErrCodeJournal, "failed to write journal", err)
	}
	s.out.VerboseLog("journaled %d new node(s)", written)
	return nil
}

// NodeSummary names a node in command output.
type NodeSummary struct {
	Class string `json:"class"`
	ID    string `json:"id"`
}

func (n NodeSummary) String() string {
	return n.Class + " " + n.ID
}

func summarize(ns []node.Node) []NodeSummary {
	out := make([]NodeSummary, len(ns))
	for i, n := range ns {
		out[i] = NodeSummary{Class: n.Class(), ID: n.ID().String()}
	}
	return out
}

// writeOutput writes data to path, reporting failures as command errors.
func writeOutput(out *OutputFormatter, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return out.Fail(ErrCodeWriteFailed, "failed to write "+path, err)
	}
	return nil
}
