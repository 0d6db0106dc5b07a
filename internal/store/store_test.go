package store

import (
	"context"
	"testing"

	"solgraph/internal/graph"
)

func testGraph() *graph.Graph {
	g := graph.New()
	g.AddNode("Token", "Token.transfer", "transfer", nil)
	g.AddNode("Token", "Token._move", "_move", nil)
	g.AddNode("SafeMath", "SafeMath.add", "add", nil)
	g.AddEdge("Token.transfer", "Token._move", graph.EdgeRegular, nil)
	g.AddEdge("Token.transfer", "SafeMath.add", graph.EdgeExternal, nil)
	g.AddEdge("Token._move", "SafeMath.add", graph.EdgeExternal, nil)
	return g
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveGraphAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveGraph(ctx, testGraph()); err != nil {
		t.Fatalf("save graph: %v", err)
	}

	nodes, edges, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if nodes != 3 || edges != 3 {
		t.Errorf("got %d nodes, %d edges; want 3, 3", nodes, edges)
	}
}

func TestSaveGraphReplacesSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveGraph(ctx, testGraph()); err != nil {
		t.Fatal(err)
	}

	small := graph.New()
	small.AddNode("A", "A.f", "f", nil)
	if err := s.SaveGraph(ctx, small); err != nil {
		t.Fatal(err)
	}

	nodes, edges, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if nodes != 1 || edges != 0 {
		t.Errorf("stale snapshot survived: %d nodes, %d edges", nodes, edges)
	}
}

func TestFindCallers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveGraph(ctx, testGraph()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want int
	}{
		{"SafeMath.add", 2}, // qualified
		{"add", 2},          // bare label
		{"Token._move", 1},
		{"transfer", 0},
		{"unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges, err := s.FindCallers(ctx, tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(edges) != tt.want {
				t.Errorf("got %d callers, want %d", len(edges), tt.want)
			}
		})
	}
}

func TestFindCallees(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveGraph(ctx, testGraph()); err != nil {
		t.Fatal(err)
	}

	edges, err := s.FindCallees(ctx, "Token.transfer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d callees, want 2", len(edges))
	}
	for _, e := range edges {
		if e.From != "Token.transfer" {
			t.Errorf("unexpected caller %s", e.From)
		}
	}
}

func TestEdgeKindRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveGraph(ctx, testGraph()); err != nil {
		t.Fatal(err)
	}

	edges, err := s.FindCallers(ctx, "SafeMath.add")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range edges {
		if e.Kind != graph.EdgeExternal {
			t.Errorf("kind = %s, want %s", e.Kind, graph.EdgeExternal)
		}
	}
}
