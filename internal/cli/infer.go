package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polygenea/internal/engine"
	"github.com/roach88/polygenea/internal/rulebook"
)

// InferOptions holds flags for the infer command.
type InferOptions struct {
	*RootOptions
	Rules    string
	MaxSteps int
	Output   string
}

// InferResult reports an inference run.
type InferResult struct {
	Rules  int `json:"rules"`
	Rounds int `json:"rounds"`
	Fired  int `json:"fired"`
	Added  int `json:"added"`
	Nodes  int `json:"nodes"`
}

func (r InferResult) String() string {
	return fmt.Sprintf("✓ %d rule(s) fired %d time(s) over %d round(s), %d node(s) added, %d stored",
		r.Rules, r.Fired, r.Rounds, r.Added, r.Nodes)
}

// NewInferCommand creates the infer command.
func NewInferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "infer --rules <file> [file]...",
		Short: "Apply inference rules until nothing new is derived",
		Long: `Load node files (and the journal given with --db), then apply the rules in
the rule file to the stored claims round after round until a round derives
nothing new or --max-steps rule applications have been made.

Rule files may be YAML, CUE or a JSON list of InferenceRule nodes. Derived
nodes are journaled when --db is given, even when the run stops early.

Examples:
  polygenea infer --rules family.yaml --db family.db
  polygenea infer --rules family.cue people.json -o derived.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule file (.yaml, .yml, .cue or .json)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum rule applications (0 for no limit)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the resulting graph to file")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runInfer(opts *InferOptions, files []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.ingest(cmd, files); err != nil {
		return err
	}

	entries, err := rulebook.Load(opts.Rules, rulebook.WithRegistry(s.graph.Registry()))
	if err != nil {
		return s.out.Fail(ErrCodeReadFailed, "failed to load rules", err)
	}
	s.logger.Debug("loaded rules", "file", opts.Rules, "count", len(entries))

	e := engine.New(s.graph,
		engine.WithLogger(s.logger),
		engine.WithMaxSteps(opts.MaxSteps),
	)
	report, runErr := e.Run(cmd.Context(), rulebook.Rules(entries)...)

	// What was derived before a failure is still sound.
	if err := s.persist(cmd.Context()); err != nil {
		return err
	}
	if opts.Output != "" {
		data, err := exportBytes(s, false)
		if err != nil {
			return s.out.Fail(ErrCodeGeneric, "failed to serialize", err)
		}
		if err := writeOutput(s.out, opts.Output, data); err != nil {
			return err
		}
	}
	if runErr != nil {
		return s.out.Fail(ErrCodeGeneric, "inference stopped", runErr)
	}

	return s.out.Success(InferResult{
		Rules:  len(entries),
		Rounds: report.Rounds,
		Fired:  report.Fired,
		Added:  report.Added,
		Nodes:  s.graph.Len(),
	})
}
