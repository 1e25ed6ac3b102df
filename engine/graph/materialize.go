package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/pkg/metrics"
	"golang.org/x/time/rate"
)

// Strategy selects how nodes are labeled and edges matched.
type Strategy int

const (
	// StrategyUniform labels every node IfcNode and stores the type in
	// ClassName. Endpoints are matched by nid alone.
	StrategyUniform Strategy = iota
	// StrategyPerClass labels every node with its type name. Endpoints are
	// matched by label and nid.
	StrategyPerClass
)

func (s Strategy) String() string {
	if s == StrategyPerClass {
		return "per-class"
	}
	return "uniform"
}

// ParseStrategy accepts "uniform" (or "same") and "per-class" (or
// "perclass", "each").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform", "same", "":
		return StrategyUniform, nil
	case "per-class", "perclass", "each", "each-class":
		return StrategyPerClass, nil
	}
	return StrategyUniform, fmt.Errorf("graph: unknown strategy %q", s)
}

// Phase is the progress of one materialization run.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCleared
	PhaseNodesWritten
	PhaseEdgesWritten
	PhaseFailed
)

var phaseNames = [...]string{"not_started", "cleared", "nodes_written", "edges_written", "failed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// WriteError reports a failed statement. Phase is the last phase completed
// before the failure; nothing written before it is rolled back.
type WriteError struct {
	Phase Phase
	Op    string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("graph: %s failed after %s: %v", e.Op, e.Phase, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Report summarizes a materialization run.
type Report struct {
	Strategy   Strategy
	Phase      Phase
	Nodes      int
	Edges      int
	Statements int
	Duration   time.Duration
}

// Materializer replaces the store contents with a graph.
type Materializer interface {
	Strategy() Strategy
	Materialize(ctx context.Context, sess CypherSession, g *domain.Graph) (Report, error)
}

// Option configures a Materializer.
type Option func(*options)

type options struct {
	log     *slog.Logger
	limiter *rate.Limiter
	reg     *metrics.Registry
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRateLimit paces statements through l. A nil limiter disables pacing.
func WithRateLimit(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithMetrics counts statements per phase in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// NewMaterializer returns the materializer for s.
func NewMaterializer(s Strategy, opts ...Option) Materializer {
	o := options{log: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	if s == StrategyPerClass {
		return &PerClass{opts: o}
	}
	return &Uniform{opts: o}
}

// run tracks phase and statement count for one Materialize call.
type run struct {
	opts   options
	report Report
	start  time.Time
}

func newRun(s Strategy, o options) *run {
	return &run{opts: o, report: Report{Strategy: s, Phase: PhaseNotStarted}, start: time.Now()}
}

// exec paces and runs one write, recording failure or success.
func (r *run) exec(ctx context.Context, op string, do func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return r.fail(op, err)
	}
	if r.opts.limiter != nil {
		if err := r.opts.limiter.Wait(ctx); err != nil {
			return r.fail(op, err)
		}
	}
	if err := do(ctx); err != nil {
		return r.fail(op, err)
	}
	r.report.Statements++
	if r.opts.reg != nil {
		r.opts.reg.Counter(metrics.WithLabels("ifcgraph_store_writes_total", "op", op),
			"Statements written to the graph store.").Inc()
	}
	return nil
}

// runStatement runs cypher and drains the result so server-side errors
// surface here.
func runStatement(ctx context.Context, runner CypherRunner, cypher string, params map[string]any) error {
	res, err := runner.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	for res.Next(ctx) {
	}
	return res.Err()
}

func (r *run) fail(op string, err error) error {
	we := &WriteError{Phase: r.report.Phase, Op: op, Err: err}
	r.report.Phase = PhaseFailed
	r.report.Duration = time.Since(r.start)
	r.opts.log.Error("graph: write failed", "strategy", r.report.Strategy, "op", op,
		"after", we.Phase, "statements", r.report.Statements, "error", err)
	return we
}

func (r *run) advance(p Phase) {
	r.report.Phase = p
	r.opts.log.Debug("graph: phase", "strategy", r.report.Strategy, "phase", p, "statements", r.report.Statements)
}

func (r *run) done() Report {
	r.report.Duration = time.Since(r.start)
	return r.report
}

// nodeProps returns the stored properties of n plus nid.
func nodeProps(n domain.Node) map[string]any {
	props := n.Params()
	props["nid"] = n.ID
	return props
}
