package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/WessleyAI/ifcgraph/engine/graph"
)

// Config holds flag and environment configuration. Flags win over the
// environment, which wins over defaults.
type Config struct {
	IFCPath     string
	Mode        string
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	Neo4jDB     string
	Ignored     []string
	SchemaFile  string
	DryRun      bool
	WriteRate   float64
	MetricsPort int
	NATSURL     string
	Verbose     bool
}

func loadConfig(args []string, stderr io.Writer) (Config, error) {
	var (
		cfg    Config
		ignore string
	)
	fs := flag.NewFlagSet("ifc2neo4j", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ifc2neo4j [flags] [file.ifc]")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.IFCPath, "ifc", envOr("IFC_PATH", "ifc_files/IfcOpenHouse_original.ifc"), "IFC file to convert")
	fs.StringVar(&cfg.Mode, "mode", envOr("IFC_GRAPH_MODE", "uniform"), "node labeling: uniform or per-class")
	fs.StringVar(&cfg.Neo4jURL, "neo4j", envOr("NEO4J_URI", "bolt://database:7687"), "Neo4j bolt URL")
	fs.StringVar(&cfg.Neo4jUser, "neo4j-user", envOr("NEO4J_USERNAME", "neo4j"), "Neo4j username")
	fs.StringVar(&cfg.Neo4jPass, "neo4j-pass", envOr("NEO4J_PASSWORD", "password"), "Neo4j password")
	fs.StringVar(&cfg.Neo4jDB, "neo4j-db", envOr("NEO4J_DATABASE", ""), "Neo4j database (empty for the server default)")
	fs.StringVar(&ignore, "ignore", envOr("IFC_IGNORED_CLASSES", "IfcOwnerHistory"), "comma-separated entity types to leave out")
	fs.StringVar(&cfg.SchemaFile, "schema", envOr("IFC_SCHEMA_FILE", ""), "YAML attribute table overriding the builtin schema")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "extract and report without writing")
	fs.Float64Var(&cfg.WriteRate, "write-rate", envFloat("IFC_WRITE_RATE", 0), "max statements per second (0 = unlimited)")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", envInt("METRICS_PORT", 0), "serve /metrics on this port (0 = off)")
	fs.StringVar(&cfg.NATSURL, "nats", envOr("NATS_URL", ""), "publish a completion event to this NATS server")
	fs.BoolVar(&cfg.Verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.IFCPath = fs.Arg(0)
	default:
		return cfg, fmt.Errorf("expected at most one file argument, got %d", fs.NArg())
	}
	cfg.Ignored = splitList(ignore)
	return cfg, cfg.Validate()
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.IFCPath) == "" {
		errs = append(errs, errors.New("no IFC file given"))
	}
	if _, err := graph.ParseStrategy(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if !c.DryRun && c.Neo4jURL == "" {
		errs = append(errs, errors.New("neo4j URL is required unless -dry-run is set"))
	}
	if c.WriteRate < 0 {
		errs = append(errs, fmt.Errorf("write rate must be >= 0, got %g", c.WriteRate))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics port out of range: %d", c.MetricsPort))
	}
	return errors.Join(errs...)
}

// Strategy returns the parsed -mode.
func (c Config) Strategy() graph.Strategy {
	s, _ := graph.ParseStrategy(c.Mode)
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

// splitList splits a comma list, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
