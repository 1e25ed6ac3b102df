// Command ifc2neo4j converts an IFC STEP file into a Neo4j property graph,
// either with one IfcNode label for every record or with one label per
// entity type.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/WessleyAI/ifcgraph/engine/convert"
	"github.com/WessleyAI/ifcgraph/engine/graph"
	"github.com/WessleyAI/ifcgraph/engine/schema"
	"github.com/WessleyAI/ifcgraph/pkg/fn"
	"github.com/WessleyAI/ifcgraph/pkg/metrics"
	"github.com/WessleyAI/ifcgraph/pkg/natsutil"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	// A missing .env is normal; the real environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "ifc2neo4j: .env: %v\n", err)
	}
	cfg, err := loadConfig(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ifc2neo4j: %v\n", err)
		return 1
	}

	logger := newLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ifc2neo4j failed", "error", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	reg := metrics.New()
	if cfg.MetricsPort > 0 {
		reg.ServeAsync(ctx, cfg.MetricsPort, log)
		log.Info("metrics server starting", "port", cfg.MetricsPort)
	}

	opts := convert.Options{
		Strategy: cfg.Strategy(),
		Ignored:  cfg.Ignored,
		DryRun:   cfg.DryRun,
		Logger:   log,
		Metrics:  reg,
	}
	if cfg.SchemaFile != "" {
		s, err := loadSchema(cfg.SchemaFile)
		if err != nil {
			return err
		}
		opts.Schema = s
		log.Info("using schema file", "path", cfg.SchemaFile, "schema", s.Name(), "entities", s.Len())
	}
	if cfg.WriteRate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.WriteRate), 1)
	}
	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "ifc2neo4j", log)
		if err != nil {
			return err
		}
		defer nc.Drain()
		opts.Notifier = convert.NewNATSNotifier(nc, "")
	}

	if cfg.DryRun {
		_, rep, err := convert.Extract(ctx, cfg.IFCPath, opts)
		if err != nil {
			return err
		}
		logReport(log, rep)
		return nil
	}

	// The driver is only opened once the file has produced a valid graph.
	var (
		driver neo4j.DriverWithContext
		store  *graph.GraphStore
	)
	open := func(ctx context.Context) (graph.CypherSession, error) {
		d, err := connect(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		driver = d
		store = graph.New(driver, cfg.Neo4jDB)
		return store.OpenSession(ctx), nil
	}
	defer func() {
		if driver != nil {
			driver.Close(context.Background())
		}
	}()

	rep, err := convert.ConvertLazy(ctx, cfg.IFCPath, open, opts)
	if err != nil {
		return err
	}
	logReport(log, rep)

	st, err := store.Stats(ctx, opts.Strategy)
	if err != nil {
		log.Warn("store stats unavailable", "error", err)
		return nil
	}
	recordStats(reg, st)
	nodes, rels := st.Total()
	log.Info("store contents", "nodes", nodes, "relationships", rels, "labels", len(st.Nodes), "types", len(st.Relationships))
	return nil
}

func loadSchema(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema file: %w", err)
	}
	defer f.Close()
	s, err := schema.Load(f)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// connect opens the driver and waits for the server, retrying while it is
// unreachable. Authentication failures are not retried.
func connect(ctx context.Context, cfg Config, log *slog.Logger) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	opts := fn.DefaultRetry
	opts.Retryable = func(err error) bool { return !isSecurityError(err) }
	res := fn.Retry(ctx, opts, func(ctx context.Context) fn.Result[struct{}] {
		err := driver.VerifyConnectivity(ctx)
		if err != nil {
			log.Warn("neo4j not reachable", "url", cfg.Neo4jURL, "error", err)
		}
		return fn.FromPair(struct{}{}, err)
	})
	if _, err := res.Unwrap(); err != nil {
		driver.Close(context.Background())
		return nil, fmt.Errorf("neo4j verify %s: %w", cfg.Neo4jURL, err)
	}
	log.Info("connected to Neo4j", "url", cfg.Neo4jURL, "database", cfg.Neo4jDB)
	return driver, nil
}

func isSecurityError(err error) bool {
	var ne *neo4j.Neo4jError
	return errors.As(err, &ne) && strings.HasPrefix(ne.Code, "Neo.ClientError.Security.")
}

func logReport(log *slog.Logger, rep convert.Report) {
	top := make([]string, 0, 5)
	for _, tc := range rep.TopTypes(5) {
		top = append(top, fmt.Sprintf("%s=%d", tc.Type, tc.Count))
	}
	log.Info("conversion report",
		"run_id", rep.RunID,
		"path", rep.Path,
		"schema", rep.Schema,
		"strategy", rep.Strategy,
		"dry_run", rep.DryRun,
		"records", rep.Records,
		"nodes", rep.Nodes,
		"edges", rep.Edges,
		"warnings", rep.Warnings,
		"statements", rep.Statements,
		"top_types", strings.Join(top, ","),
		"extract", rep.ExtractDuration,
		"write", rep.WriteDuration,
	)
}

// recordStats exposes the store contents as gauges.
func recordStats(reg *metrics.Registry, st graph.Stats) {
	for label, n := range st.Nodes {
		reg.Gauge(metrics.WithLabels("ifcgraph_store_nodes", "label", label), "Nodes in the store by label.").Set(n)
	}
	for typ, n := range st.Relationships {
		reg.Gauge(metrics.WithLabels("ifcgraph_store_relationships", "type", typ), "Relationships in the store by type.").Set(n)
	}
	for class, n := range st.Classes {
		reg.Gauge(metrics.WithLabels("ifcgraph_store_classes", "class", class), "Uniform nodes in the store by ClassName.").Set(n)
	}
}
