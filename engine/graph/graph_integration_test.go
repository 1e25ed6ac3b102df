//go:build integration

package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func testDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	url := envOr("NEO4J_URL", "neo4j://localhost:7687")
	driver, err := neo4j.NewDriverWithContext(url, neo4j.NoAuth())
	if err != nil {
		t.Fatalf("neo4j connect: %v", err)
	}
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("neo4j verify: %v", err)
	}
	t.Cleanup(func() {
		sess := driver.NewSession(ctx, neo4j.SessionConfig{})
		sess.Run(ctx, clearCypher, nil)
		sess.Close(ctx)
		driver.Close(ctx)
	})
	return driver
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNeo4j_UniformRoundTrip(t *testing.T) {
	driver := testDriver(t)
	store := New(driver, os.Getenv("NEO4J_DATABASE"))
	ctx := context.Background()

	sess := store.OpenSession(ctx)
	defer sess.Close(ctx)

	for i := 0; i < 2; i++ {
		if _, err := NewMaterializer(StrategyUniform).Materialize(ctx, sess, wallDoor(false)); err != nil {
			t.Fatalf("Materialize run %d: %v", i, err)
		}
	}

	st, err := store.Stats(ctx, StrategyUniform)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Nodes[UniformLabel] != 2 || st.Relationships["HasOpening"] != 1 {
		t.Fatalf("unexpected stats after rerun: %+v", st)
	}
	if st.Classes["IfcWall"] != 1 || st.Classes["IfcDoor"] != 1 {
		t.Fatalf("unexpected class counts: %v", st.Classes)
	}
}

func TestNeo4j_PerClassRoundTrip(t *testing.T) {
	driver := testDriver(t)
	store := New(driver, os.Getenv("NEO4J_DATABASE"))
	ctx := context.Background()

	sess := store.OpenSession(ctx)
	defer sess.Close(ctx)

	if _, err := NewMaterializer(StrategyPerClass).Materialize(ctx, sess, collidingIDs()); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	st, err := store.Stats(ctx, StrategyPerClass)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Nodes["IfcWall"] != 1 || st.Nodes["IfcDoor"] != 1 || st.Relationships["Fills"] != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
