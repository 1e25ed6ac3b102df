package convert

import (
	"sort"
	"time"
)

// Report describes one conversion run. It is logged and, when a notifier is
// configured, published as the completion event.
type Report struct {
	RunID           string         `json:"run_id"`
	Path            string         `json:"path"`
	Schema          string         `json:"schema,omitempty"`
	Strategy        string         `json:"strategy"`
	DryRun          bool           `json:"dry_run,omitempty"`
	Records         int            `json:"records"`
	Nodes           int            `json:"nodes"`
	Edges           int            `json:"edges"`
	Warnings        int            `json:"warnings"`
	Statements      int            `json:"statements"`
	Types           map[string]int `json:"types,omitempty"`
	Phase           string         `json:"phase,omitempty"`
	Error           string         `json:"error,omitempty"`
	Started         time.Time      `json:"started"`
	Finished        time.Time      `json:"finished"`
	ExtractDuration time.Duration  `json:"extract_duration_ns"`
	WriteDuration   time.Duration  `json:"write_duration_ns"`
}

// OK reports whether the run finished without error.
func (r Report) OK() bool { return r.Error == "" }

// TypeCount is one entry of Report.TopTypes.
type TypeCount struct {
	Type  string
	Count int
}

// TopTypes returns the n most frequent node types, most frequent first and
// ties by name. n <= 0 returns all of them.
func (r Report) TopTypes(n int) []TypeCount {
	out := make([]TypeCount, 0, len(r.Types))
	for t, c := range r.Types {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
