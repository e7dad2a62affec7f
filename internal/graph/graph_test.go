package graph

import "testing"

func openTestGraph(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("open graph: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := openTestGraph(t)

	meta := map[string]any{"context": "call", "line": 3, "match_type": MatchExplicitImport}
	if err := g.AddEdge("proj", "src", "dst", "call", meta); err != nil {
		t.Fatal(err)
	}
	// Re-linking the same triple replaces, never duplicates.
	meta["line"] = 7
	if err := g.AddEdge("proj", "src", "dst", "call", meta); err != nil {
		t.Fatal(err)
	}

	n, err := g.CountEdges("proj")
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}

	edges, err := g.Edges("proj", Filter{SourceID: "src"})
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges", len(edges))
	}
	if line, ok := edges[0].Metadata["line"].(float64); !ok || int(line) != 7 {
		t.Errorf("metadata not replaced: %v", edges[0].Metadata)
	}
}

func TestEdgeFilters(t *testing.T) {
	g := openTestGraph(t)

	_ = g.AddEdge("proj", "a", "b", "call", nil)
	_ = g.AddEdge("proj", "a", "c", "call", nil)
	_ = g.AddEdge("proj", "b", "c", "import", nil)

	bySource, _ := g.Edges("proj", Filter{SourceID: "a"})
	if len(bySource) != 2 {
		t.Errorf("by source = %d edges", len(bySource))
	}
	byTarget, _ := g.Edges("proj", Filter{TargetID: "c"})
	if len(byTarget) != 2 {
		t.Errorf("by target = %d edges", len(byTarget))
	}
	byType, _ := g.Edges("proj", Filter{Type: "import"})
	if len(byType) != 1 {
		t.Errorf("by type = %d edges", len(byType))
	}
	combined, _ := g.Edges("proj", Filter{SourceID: "a", TargetID: "c", Type: "call"})
	if len(combined) != 1 {
		t.Errorf("combined filter = %d edges", len(combined))
	}
}

func TestProjectScoping(t *testing.T) {
	g := openTestGraph(t)

	_ = g.AddEdge("projA", "a", "b", "call", nil)
	_ = g.AddEdge("projB", "a", "b", "call", nil)

	if err := g.Clear("projA"); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.CountEdges("projA"); n != 0 {
		t.Errorf("projA edges after clear = %d", n)
	}
	if n, _ := g.CountEdges("projB"); n != 1 {
		t.Errorf("projB edges after clearing A = %d", n)
	}
}

func TestDeleteBySource(t *testing.T) {
	g := openTestGraph(t)

	_ = g.AddEdge("proj", "a", "b", "call", nil)
	_ = g.AddEdge("proj", "a", "c", "call", nil)
	_ = g.AddEdge("proj", "x", "b", "call", nil)

	if err := g.DeleteBySource("proj", "a"); err != nil {
		t.Fatal(err)
	}
	n, _ := g.CountEdges("proj")
	if n != 1 {
		t.Errorf("edges after delete-by-source = %d, want 1", n)
	}
}
