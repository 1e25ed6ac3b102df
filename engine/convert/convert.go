// Package convert runs the whole IFC to graph conversion: read the STEP
// file, extract nodes and edges, validate them and materialize them into a
// store session the caller owns.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/ifcgraph/engine/domain"
	"github.com/WessleyAI/ifcgraph/engine/extract"
	"github.com/WessleyAI/ifcgraph/engine/graph"
	"github.com/WessleyAI/ifcgraph/engine/model"
	"github.com/WessleyAI/ifcgraph/engine/schema"
	"github.com/WessleyAI/ifcgraph/pkg/fn"
	"github.com/WessleyAI/ifcgraph/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrNoSession is returned when a writing run has no store session.
var ErrNoSession = errors.New("convert: no store session")

// Options configures a conversion run. The zero value converts with the
// uniform strategy, ignores IfcOwnerHistory and picks the builtin schema
// named in the file header.
type Options struct {
	Strategy graph.Strategy
	// Ignored type names; nil means extract.DefaultIgnored.
	Ignored []string
	// Schema overrides the schema named in the file header.
	Schema *schema.Schema
	// DryRun extracts and validates without touching the store.
	DryRun   bool
	Logger   *slog.Logger
	Metrics  *metrics.Registry
	Limiter  *rate.Limiter
	Notifier Notifier
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) ignored() []string {
	if o.Ignored == nil {
		return extract.DefaultIgnored
	}
	return o.Ignored
}

// SessionFunc opens the store session for a run. ConvertLazy calls it only
// once the graph has been extracted and validated.
type SessionFunc func(ctx context.Context) (graph.CypherSession, error)

// job carries one run through the pipeline stages.
type job struct {
	path   string
	sess   graph.CypherSession
	open   SessionFunc
	model  *model.Model
	graph  *domain.Graph
	report Report
}

// Uniform converts path into sess with every node labeled IfcNode.
func Uniform(ctx context.Context, path string, sess graph.CypherSession, ignored []string) (Report, error) {
	return Convert(ctx, path, sess, Options{Strategy: graph.StrategyUniform, Ignored: ignored})
}

// PerClass converts path into sess with every node labeled by its type.
func PerClass(ctx context.Context, path string, sess graph.CypherSession, ignored []string) (Report, error) {
	return Convert(ctx, path, sess, Options{Strategy: graph.StrategyPerClass, Ignored: ignored})
}

// Extract reads and validates path without writing anything.
func Extract(ctx context.Context, path string, opts Options) (*domain.Graph, Report, error) {
	opts.DryRun = true
	j, err := run(ctx, &job{path: path}, opts)
	return j.graph, j.report, err
}

// Convert runs the full pipeline. A file without nodes fails with
// domain.ErrNoNodes before anything is written. Store failures are returned
// as *graph.WriteError and leave whatever was written in place.
func Convert(ctx context.Context, path string, sess graph.CypherSession, opts Options) (Report, error) {
	if sess == nil && !opts.DryRun {
		return Report{}, ErrNoSession
	}
	j, err := run(ctx, &job{path: path, sess: sess}, opts)
	return j.report, err
}

// ConvertLazy is Convert for callers that should not reach the store until
// there is something to write: open runs after validation, so an unreadable
// or empty file fails without connecting. The opened session is closed
// before ConvertLazy returns.
func ConvertLazy(ctx context.Context, path string, open SessionFunc, opts Options) (Report, error) {
	if open == nil && !opts.DryRun {
		return Report{}, ErrNoSession
	}
	j, err := run(ctx, &job{path: path, open: open}, opts)
	return j.report, err
}

func run(ctx context.Context, j *job, opts Options) (*job, error) {
	log := opts.logger()
	path := j.path
	j.report = Report{
		RunID:    uuid.NewString(),
		Path:     path,
		Strategy: opts.Strategy.String(),
		DryRun:   opts.DryRun,
		Started:  time.Now().UTC(),
	}
	log = log.With("run_id", j.report.RunID)

	pipeline := newPipeline(opts, log)
	_, err := pipeline(ctx, j).Unwrap()
	j.report.Finished = time.Now().UTC()
	if err != nil {
		j.report.Error = err.Error()
		log.Error("convert: failed", "path", path, "strategy", j.report.Strategy, "error", err)
	} else {
		log.Info("convert: all done", "path", path, "strategy", j.report.Strategy,
			"nodes", j.report.Nodes, "edges", j.report.Edges, "warnings", j.report.Warnings,
			"duration", j.report.Finished.Sub(j.report.Started))
	}
	notify(ctx, opts.Notifier, j.report, log)
	return j, err
}

// newPipeline wires Load, Extract, Validate and Write with logging taps and
// a span per stage.
func newPipeline(opts Options, log *slog.Logger) fn.Stage[*job, *job] {
	stage := func(name string, s fn.Stage[*job, *job]) fn.Stage[*job, *job] {
		return fn.TracedStage("convert."+name, fn.Timed(name, log, fn.Then(fn.LoggedTap[*job](name, log), s)))
	}
	loaded := stage("load", loadStage(opts))
	extracted := fn.Then(loaded, stage("extract", extractStage(opts, log)))
	validated := fn.Then(extracted, stage("validate", validateStage(opts)))
	if opts.DryRun {
		return validated
	}
	return fn.Then(validated, stage("write", writeStage(opts, log)))
}

func loadStage(opts Options) fn.Stage[*job, *job] {
	return func(_ context.Context, j *job) fn.Result[*job] {
		m, err := model.Open(j.path, opts.Schema)
		if err != nil {
			return fn.Err[*job](fmt.Errorf("convert: load %s: %w", j.path, err))
		}
		j.model = m
		j.report.Schema = m.Schema().Name()
		j.report.Records = m.Len()
		return fn.Ok(j)
	}
}

func extractStage(opts Options, log *slog.Logger) fn.Stage[*job, *job] {
	keepTypes := opts.Strategy == graph.StrategyPerClass
	return func(ctx context.Context, j *job) fn.Result[*job] {
		start := time.Now()
		g, err := extract.NewBuilder(opts.ignored(), keepTypes, log).Build(ctx, j.model)
		j.report.ExtractDuration = time.Since(start)
		if opts.Metrics != nil {
			opts.Metrics.Histogram("ifcgraph_extract_duration_seconds",
				"Time spent reading and extracting the model.", nil).Since(start)
		}
		if g != nil {
			j.graph = g
			j.report.Nodes = len(g.Nodes)
			j.report.Edges = len(g.Edges)
			j.report.Warnings = g.Warnings
			j.report.Types = g.TypeCounts()
			if opts.Metrics != nil {
				opts.Metrics.Counter("ifcgraph_nodes_total", "Nodes extracted.").Add(int64(len(g.Nodes)))
				opts.Metrics.Counter("ifcgraph_edges_total", "Edges extracted.").Add(int64(len(g.Edges)))
				opts.Metrics.Counter("ifcgraph_read_warnings_total", "Attribute slots that failed to read.").Add(int64(g.Warnings))
			}
		}
		if err != nil {
			return fn.Err[*job](err)
		}
		log.Info("convert: list creation done", "nodes", j.report.Nodes, "edges", j.report.Edges,
			"warnings", j.report.Warnings, "duration", j.report.ExtractDuration)
		return fn.Ok(j)
	}
}

func validateStage(opts Options) fn.Stage[*job, *job] {
	typed := opts.Strategy == graph.StrategyPerClass
	return func(_ context.Context, j *job) fn.Result[*job] {
		if err := domain.ValidateGraph(j.graph, typed); err != nil {
			return fn.Err[*job](err)
		}
		return fn.Ok(j)
	}
}

func writeStage(opts Options, log *slog.Logger) fn.Stage[*job, *job] {
	m := graph.NewMaterializer(opts.Strategy,
		graph.WithLogger(log),
		graph.WithRateLimit(opts.Limiter),
		graph.WithMetrics(opts.Metrics),
	)
	return func(ctx context.Context, j *job) fn.Result[*job] {
		if j.sess == nil && j.open != nil {
			sess, err := j.open(ctx)
			if err != nil {
				return fn.Err[*job](fmt.Errorf("convert: open session: %w", err))
			}
			defer sess.Close(context.Background())
			j.sess = sess
		}
		if j.sess == nil {
			return fn.Err[*job](ErrNoSession)
		}
		start := time.Now()
		rep, err := m.Materialize(ctx, j.sess, j.graph)
		j.report.Phase = rep.Phase.String()
		j.report.Statements = rep.Statements
		j.report.WriteDuration = rep.Duration
		if opts.Metrics != nil {
			opts.Metrics.Histogram("ifcgraph_write_duration_seconds",
				"Time spent writing the graph to the store.", nil).Since(start)
		}
		if err != nil {
			return fn.Err[*job](err)
		}
		return fn.Ok(j)
	}
}
