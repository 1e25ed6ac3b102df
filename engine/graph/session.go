// Package graph writes an extracted IFC graph into Neo4j and reads back
// summary statistics.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult is the minimal interface needed from a neo4j result.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner runs a single statement (a session or a managed transaction).
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is the minimal interface needed from a neo4j session.
type CypherSession interface {
	CypherRunner
	Close(ctx context.Context) error
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
}

// SessionOpener creates sessions; tests substitute their own.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// driverOpener opens real driver sessions against one database.
type driverOpener struct {
	driver   neo4j.DriverWithContext
	database string
}

func (o *driverOpener) OpenSession(ctx context.Context) CypherSession {
	return NewSession(ctx, o.driver, o.database)
}

// NewSession opens a write session on database ("" selects the server
// default).
func NewSession(ctx context.Context, driver neo4j.DriverWithContext, database string) CypherSession {
	cfg := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: database}
	return &sessionAdapter{sess: driver.NewSession(ctx, cfg)}
}

// sessionAdapter adapts neo4j.SessionWithContext to CypherSession.
type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (a *sessionAdapter) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return a.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&txAdapter{tx: tx})
	})
}

// txAdapter adapts neo4j.ManagedTransaction to CypherRunner.
type txAdapter struct {
	tx neo4j.ManagedTransaction
}

func (a *txAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	return a.tx.Run(ctx, cypher, params)
}

// GraphStore reads from the store. Writes go through a Materializer on a
// session the caller owns.
type GraphStore struct {
	opener SessionOpener
}

// New creates a GraphStore on top of a driver.
func New(driver neo4j.DriverWithContext, database string) *GraphStore {
	return &GraphStore{opener: &driverOpener{driver: driver, database: database}}
}

// NewWithOpener creates a GraphStore using a custom session opener.
func NewWithOpener(opener SessionOpener) *GraphStore {
	return &GraphStore{opener: opener}
}

// OpenSession opens a session for the caller to own and close.
func (g *GraphStore) OpenSession(ctx context.Context) CypherSession {
	return g.opener.OpenSession(ctx)
}
