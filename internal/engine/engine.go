package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
	"github.com/roach88/polygenea/internal/nodes"
)

// DefaultMaxSteps is the default maximum number of firings per Run.
// This prevents rules that keep minting new entities from running forever.
const DefaultMaxSteps = 1000

var (
	firings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polygenea_engine_firings_total",
		Help: "Rule applications whose results were added to a store",
	})

	rounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polygenea_engine_rounds_total",
		Help: "Passes over the store made by saturating runs",
	})
)

// settings is shared by Apply and Engine.
type settings struct {
	maxSteps int
	logger   *slog.Logger
	reg      *node.Registry
	lookup   node.Lookup
}

var defaultRegistry = nodes.NewRegistry()

func newSettings(opts []Option) settings {
	cfg := settings{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.reg == nil {
		cfg.reg = defaultRegistry
	}
	if cfg.lookup == nil {
		cfg.lookup = node.Direct
	}
	return cfg
}

// Option configures Apply and Engine.
type Option func(*settings)

// WithMaxSteps sets the maximum number of firings per Run.
//
// Default: 1000 steps (DefaultMaxSteps). Zero or less means no limit.
// Use WithMaxSteps(10) for testing quota enforcement.
func WithMaxSteps(maxSteps int) Option {
	return func(s *settings) {
		s.maxSteps = maxSteps
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithRegistry sets the registry consequent variants are looked up in.
// Default: the built-in catalog.
func WithRegistry(r *node.Registry) Option {
	return func(s *settings) {
		s.reg = r
	}
}

// WithLookup sets how Apply resolves consequent references that are not
// positions, such as identity strings. Engine always uses its store.
// Default: node.Direct.
func WithLookup(lk node.Lookup) Option {
	return func(s *settings) {
		s.lookup = lk
	}
}

// Engine runs inference rules against a graph store until nothing new
// can be derived.
//
// Thread-safety: an Engine writes to its store, which assumes a single
// writer. Run must not overlap with other writers of the same store.
type Engine struct {
	store *graph.Store
	cfg   settings
}

// New creates an Engine over s. Unless WithRegistry is given, the
// engine builds consequents with the store's registry.
func New(s *graph.Store, opts ...Option) *Engine {
	opts = append([]Option{WithRegistry(s.Registry())}, opts...)
	cfg := newSettings(opts)
	cfg.lookup = s
	return &Engine{store: s, cfg: cfg}
}

// Report summarizes a Run.
type Report struct {
	// Rounds is the number of passes over the store, including the final
	// pass that derived nothing.
	Rounds int

	// Fired is the number of rule applications added to the store.
	Fired int

	// Added is the number of nodes the run added, rules included.
	Added int
}

// Run adds rules to the store and applies them until a fixpoint.
//
// Each round enumerates, for every rule in order, every tuple of stored
// claims that passes the per-position "!class" filter, in (variant,
// identity) order. A tuple whose Inference is already stored has fired
// before and is skipped, so running twice derives nothing new. Nodes added
// during a round become candidates in the next one.
//
// Every rule is validated first. Run stops with ErrQuotaExceeded after
// the configured number of firings, and with ctx.Err() when ctx is
// cancelled; everything added before that stays in the store.
func (e *Engine) Run(ctx context.Context, rules ...*nodes.InferenceRule) (Report, error) {
	var report Report
	before := e.store.Len()

	for _, rule := range rules {
		var log node.Log
		if !rule.Validate(&log) {
			return report, ir.Errorf(ir.ErrValidationFailure, "rule: %s", log.String()).WithID(rule.ID().String())
		}
	}
	ruleNodes := make([]node.Node, len(rules))
	for i, rule := range rules {
		ruleNodes[i] = rule
	}
	if err := e.store.Add(ruleNodes...); err != nil {
		return report, err
	}

	quota := NewQuotaEnforcer(e.cfg.maxSteps)
	res := make(regexps)
	for {
		report.Rounds++
		rounds.Inc()
		fired, err := e.round(ctx, rules, quota, res)
		report.Fired += fired
		report.Added = e.store.Len() - before
		if err != nil {
			e.cfg.logger.Warn("inference stopped",
				"rounds", report.Rounds,
				"fired", report.Fired,
				"error", err)
			return report, err
		}
		e.cfg.logger.Info("inference round",
			"round", report.Rounds,
			"fired", fired,
			"nodes", e.store.Len())
		if fired == 0 {
			return report, nil
		}
	}
}

// round makes one pass: every rule against a snapshot of the claims stored
// when the pass began.
func (e *Engine) round(ctx context.Context, rules []*nodes.InferenceRule, quota *QuotaEnforcer, res regexps) (int, error) {
	claims := e.claims()
	fired := 0
	for _, rule := range rules {
		pools := make([][]nodes.Claim, rule.Arity())
		for i, pattern := range rule.Antecedents() {
			pools[i] = filterClass(claims, pattern)
		}
		err := eachTuple(pools, func(tuple []nodes.Claim) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := e.fire(rule, tuple, quota, res)
			if ok {
				fired++
			}
			return err
		})
		if err != nil {
			return fired, err
		}
	}
	return fired, nil
}

// fire applies rule to one tuple and stores the result. It reports whether
// anything was added.
func (e *Engine) fire(rule *nodes.InferenceRule, tuple []nodes.Claim, quota *QuotaEnforcer, res regexps) (bool, error) {
	ok, err := matchRule(rule, tuple, res)
	if err != nil {
		return false, withRule(err, rule)
	}
	if !ok {
		return false, nil
	}
	inf, err := nodes.NewInference(rule, tuple...)
	if err != nil {
		return false, err
	}
	if e.store.Contains(inf) {
		return false, nil
	}
	res, err := instantiate(rule, tuple, inf, e.cfg)
	if errors.Is(err, ir.ErrDuplicateIdentity) || errors.Is(err, ir.ErrValidationFailure) {
		// Patterns cannot say "a different claim", so a tuple may bind one
		// claim twice where the consequent needs distinct members.
		e.cfg.logger.Debug("consequent rejected",
			"rule", rule.ID(),
			"inference", inf.ID(),
			"error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := quota.Check(); err != nil {
		return false, err
	}
	if err := e.store.Add(res.Nodes()...); err != nil {
		return false, err
	}
	firings.Inc()
	e.cfg.logger.Debug("rule fired",
		"rule", rule.ID(),
		"inference", inf.ID(),
		"derived", len(res.Derived))
	return true, nil
}

// claims returns the stored claims in (variant, identity) order.
func (e *Engine) claims() []nodes.Claim {
	var out []nodes.Claim
	for _, n := range e.store.Sorted() {
		if c, ok := n.(nodes.Claim); ok {
			out = append(out, c)
		}
	}
	return out
}

// filterClass keeps the claims a pattern's "!class" admits.
func filterClass(claims []nodes.Claim, pattern ir.IRObject) []nodes.Claim {
	if _, has := pattern[node.AttrClass]; !has {
		return claims
	}
	var out []nodes.Claim
	for _, c := range claims {
		if classMatches(pattern, c) {
			out = append(out, c)
		}
	}
	return out
}

// eachTuple calls fn with every element of the cartesian product of pools,
// varying the last position fastest. The tuple slice is reused between
// calls.
func eachTuple(pools [][]nodes.Claim, fn func([]nodes.Claim) error) error {
	for _, p := range pools {
		if len(p) == 0 {
			return nil
		}
	}
	idx := make([]int, len(pools))
	tuple := make([]nodes.Claim, len(pools))
	for {
		for i, p := range pools {
			tuple[i] = p[idx[i]]
		}
		if err := fn(tuple); err != nil {
			return err
		}
		i := len(pools) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(pools[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}
