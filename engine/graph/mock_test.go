package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// --- Mock infrastructure ---

type mockResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func newMockResult(records ...*neo4j.Record) *mockResult {
	return &mockResult{records: records}
}

func (m *mockResult) Next(_ context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record { return m.records[m.idx-1] }
func (m *mockResult) Err() error            { return m.err }

// statement is one recorded Run call.
type statement struct {
	cypher string
	params map[string]any
	inTx   bool
}

// recordingSession records every statement. Run number failAt (0-based)
// fails with runErr; failAt < 0 never fails. resultErr is returned from the
// result of every statement instead, when set.
type recordingSession struct {
	stmts     []statement
	txCount   int
	failAt    int
	runErr    error
	resultErr error
	closed    bool
}

func newRecordingSession() *recordingSession {
	return &recordingSession{failAt: -1}
}

func (s *recordingSession) record(cypher string, params map[string]any, inTx bool) (CypherResult, error) {
	n := len(s.stmts)
	s.stmts = append(s.stmts, statement{cypher: cypher, params: params, inTx: inTx})
	if n == s.failAt {
		return nil, s.runErr
	}
	return &mockResult{err: s.resultErr}, nil
}

func (s *recordingSession) Run(_ context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return s.record(cypher, params, false)
}

func (s *recordingSession) Close(_ context.Context) error {
	s.closed = true
	return nil
}

func (s *recordingSession) ExecuteWrite(_ context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	s.txCount++
	return work(&recordingTx{sess: s})
}

type recordingTx struct {
	sess *recordingSession
}

func (t *recordingTx) Run(_ context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return t.sess.record(cypher, params, true)
}

func (s *recordingSession) cyphers() []string {
	out := make([]string, len(s.stmts))
	for i, st := range s.stmts {
		out[i] = st.cypher
	}
	return out
}

// mockSession answers every Run with the same result.
type mockSession struct {
	runResult CypherResult
	runErr    error
	cyphers   []string
}

func (s *mockSession) Run(_ context.Context, cypher string, _ map[string]any) (CypherResult, error) {
	s.cyphers = append(s.cyphers, cypher)
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.runResult, nil
}

func (s *mockSession) Close(_ context.Context) error { return nil }

func (s *mockSession) ExecuteWrite(_ context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return work(s)
}

type mockOpener struct {
	session CypherSession
}

func (o *mockOpener) OpenSession(_ context.Context) CypherSession {
	return o.session
}

// --- In-memory store ---

// fakeStore interprets the statements the materializers emit against an
// in-memory property graph.
type fakeStore struct {
	nodes   []fakeNode
	edges   []fakeEdge
	indexed bool
}

type fakeNode struct {
	label string
	props map[string]any
}

type fakeEdge struct {
	from, to int
	rel      string
}

const ident = "(`(?:[^`]|``)*`|\\w+)"

var (
	reCreateNode = regexp.MustCompile(`^CREATE \(n:` + ident + ` \$props\)$`)
	reCreateEdge = regexp.MustCompile(`^MATCH \(a:` + ident + ` \{nid: \$id1\}\) MATCH \(b:` + ident +
		` \{nid: \$id2\}\) CREATE \(a\)-\[r:` + ident + `\]->\(b\)$`)
)

func unquote(s string) string {
	if strings.HasPrefix(s, "`") {
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}
	return s
}

func (f *fakeStore) Run(_ context.Context, cypher string, params map[string]any) (CypherResult, error) {
	switch {
	case cypher == clearCypher:
		f.nodes, f.edges = nil, nil
	case strings.HasPrefix(cypher, "CREATE INDEX"):
		f.indexed = true
	case reCreateNode.MatchString(cypher):
		m := reCreateNode.FindStringSubmatch(cypher)
		props, ok := params["props"].(map[string]any)
		if !ok {
			return nil, errors.New("fake: missing $props")
		}
		cp := make(map[string]any, len(props))
		for k, v := range props {
			cp[k] = v
		}
		f.nodes = append(f.nodes, fakeNode{label: unquote(m[1]), props: cp})
	case reCreateEdge.MatchString(cypher):
		m := reCreateEdge.FindStringSubmatch(cypher)
		for _, a := range f.match(unquote(m[1]), params["id1"]) {
			for _, b := range f.match(unquote(m[2]), params["id2"]) {
				f.edges = append(f.edges, fakeEdge{from: a, to: b, rel: unquote(m[3])})
			}
		}
	default:
		return nil, fmt.Errorf("fake: unsupported statement %q", cypher)
	}
	return newMockResult(), nil
}

func (f *fakeStore) match(label string, nid any) []int {
	var out []int
	for i, n := range f.nodes {
		if n.label == label && n.props["nid"] == nid {
			out = append(out, i)
		}
	}
	return out
}

func (f *fakeStore) Close(_ context.Context) error { return nil }

func (f *fakeStore) ExecuteWrite(_ context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return work(f)
}
