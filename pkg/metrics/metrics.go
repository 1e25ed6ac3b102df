// Package metrics is a small Prometheus-compatible registry of counters,
// gauges and histograms, rendered in the text exposition format and served
// on /metrics while a conversion runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WessleyAI/ifcgraph/pkg/mid"
)

// DefaultBuckets are histogram buckets in seconds, sized for whole-file
// extraction and write phases.
var DefaultBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// Counter is a monotonically increasing counter.
type Counter struct{ n atomic.Int64 }

func (c *Counter) Inc()         { c.n.Add(1) }
func (c *Counter) Add(n int64)  { c.n.Add(n) }
func (c *Counter) Value() int64 { return c.n.Load() }

// Gauge holds the last value set.
type Gauge struct{ n atomic.Int64 }

func (g *Gauge) Set(n int64)  { g.n.Store(n) }
func (g *Gauge) Value() int64 { return g.n.Load() }

// Histogram counts observations into cumulative upper-bound buckets.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64
	le     []uint64 // le[i] counts observations <= bounds[i]
	sum    float64
	count  uint64
}

func newHistogram(bounds []float64) *Histogram {
	b := append([]float64(nil), bounds...)
	sort.Float64s(b)
	return &Histogram{bounds: b, le: make([]uint64, len(b))}
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := sort.SearchFloat64s(h.bounds, v); i < len(h.bounds); i++ {
		h.le[i]++
	}
	h.sum += v
	h.count++
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) { h.Observe(time.Since(t).Seconds()) }

type histogramState struct {
	bounds []float64
	le     []uint64
	sum    float64
	count  uint64
}

func (h *Histogram) state() histogramState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramState{h.bounds, append([]uint64(nil), h.le...), h.sum, h.count}
}

type kind string

const (
	kindCounter   kind = "counter"
	kindGauge     kind = "gauge"
	kindHistogram kind = "histogram"
)

// family groups every labeled series sharing one metric name. Series are
// keyed by their label text without braces; the unlabeled series is "".
type family struct {
	name   string
	help   string
	kind   kind
	series map[string]any
}

// Registry holds metric families in registration order.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	order    []*family
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

// splitName separates `name{k="v"}` into name and `k="v"`.
func splitName(full string) (name, labels string) {
	name, labels, ok := strings.Cut(full, "{")
	if !ok {
		return full, ""
	}
	return name, strings.TrimSuffix(labels, "}")
}

// lookup returns the series for full, creating it with mk on first use. A
// name registered under another kind gets a fresh unregistered metric so
// callers never see a nil.
func (r *Registry) lookup(full, help string, k kind, mk func() any) any {
	name, labels := splitName(full)
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[name]
	if !ok {
		f = &family{name: name, kind: k, series: make(map[string]any)}
		r.families[name] = f
		r.order = append(r.order, f)
	}
	if f.help == "" {
		f.help = help
	}
	if f.kind != k {
		return mk()
	}
	m, ok := f.series[labels]
	if !ok {
		m = mk()
		f.series[labels] = m
	}
	return m
}

// Counter returns the counter named full, which may carry labels built with
// WithLabels. Help is kept from the first call that supplies one.
func (r *Registry) Counter(full, help string) *Counter {
	return r.lookup(full, help, kindCounter, func() any { return new(Counter) }).(*Counter)
}

// Gauge returns the gauge named full.
func (r *Registry) Gauge(full, help string) *Gauge {
	return r.lookup(full, help, kindGauge, func() any { return new(Gauge) }).(*Gauge)
}

// Histogram returns the histogram named full. Nil buckets mean
// DefaultBuckets; buckets are fixed by the first call.
func (r *Registry) Histogram(full, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	return r.lookup(full, help, kindHistogram, func() any { return newHistogram(buckets) }).(*Histogram)
}

// WithLabels appends label pairs to name: WithLabels("foo", "k", "v") is
// `foo{k="v"}`. An odd number of kvs leaves name unchanged.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	pairs := make([]string, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		pairs = append(pairs, kvs[i]+"="+strconv.Quote(kvs[i+1]))
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// braced joins label sets into a `{...}` suffix, or "" when all are empty.
func braced(sets ...string) string {
	var parts []string
	for _, s := range sets {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Render returns every family in the text exposition format, families in
// registration order and series sorted by label text.
func (r *Registry) Render() string {
	var b strings.Builder
	r.WriteTo(&b)
	return b.String()
}

// WriteTo writes the exposition text to w.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cw := &countWriter{w: w}
	for _, f := range r.order {
		if f.help != "" {
			fmt.Fprintf(cw, "# HELP %s %s\n", f.name, f.help)
		}
		fmt.Fprintf(cw, "# TYPE %s %s\n", f.name, f.kind)

		labels := make([]string, 0, len(f.series))
		for l := range f.series {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			f.write(cw, l)
		}
	}
	return cw.n, cw.err
}

func (f *family) write(w io.Writer, labels string) {
	switch m := f.series[labels].(type) {
	case *Counter:
		fmt.Fprintf(w, "%s%s %d\n", f.name, braced(labels), m.Value())
	case *Gauge:
		fmt.Fprintf(w, "%s%s %d\n", f.name, braced(labels), m.Value())
	case *Histogram:
		s := m.state()
		for i, bound := range s.bounds {
			fmt.Fprintf(w, "%s_bucket%s %d\n", f.name, braced(labels, `le="`+strconv.FormatFloat(bound, 'g', -1, 64)+`"`), s.le[i])
		}
		fmt.Fprintf(w, "%s_bucket%s %d\n", f.name, braced(labels, `le="+Inf"`), s.count)
		fmt.Fprintf(w, "%s_sum%s %g\n", f.name, braced(labels), s.sum)
		fmt.Fprintf(w, "%s_count%s %d\n", f.name, braced(labels), s.count)
	}
}

type countWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Handler serves the registry in the text exposition format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteTo(w)
	})
}

// NewServer returns a server for addr exposing /metrics and /healthz behind
// recover, request logging and tracing middleware.
func (r *Registry) NewServer(addr string, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", r.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok\n")
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mid.Chain(mux, mid.Recover(log), mid.Logger(log), mid.OTel("ifcgraph-metrics")),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve runs a metrics server on port until ctx is done, then shuts it down.
func (r *Registry) Serve(ctx context.Context, port int, log *slog.Logger) error {
	srv := r.NewServer(fmt.Sprintf(":%d", port), log)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeAsync runs Serve in a goroutine and logs the error it stops with.
func (r *Registry) ServeAsync(ctx context.Context, port int, log *slog.Logger) {
	go func() {
		if err := r.Serve(ctx, port, log); err != nil {
			log.Error("metrics: server stopped", "port", port, "error", err)
		}
	}()
}
