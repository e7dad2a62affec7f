package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"codeintel/internal/graph"
	"codeintel/internal/pathutil"
	"codeintel/internal/store"
)

const testDim = 8

// fakeEmbedder produces deterministic vectors without a network dependency.
type fakeEmbedder struct{}

func (fakeEmbedder) Dimensions() int { return testDim }

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, testDim)
	for i, r := range text {
		v[i%testDim] += float32(r) / 1000
	}
	return v, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Embed(ctx, t)
	}
	return out, nil
}

// failingEmbedder fails EmbedBatch while armed, for error path tests.
type failingEmbedder struct {
	fakeEmbedder
	fail atomic.Bool
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail.Load() {
		return nil, errors.New("embedding backend unavailable")
	}
	return f.fakeEmbedder.EmbedBatch(ctx, texts)
}

func newTestIndexer(t *testing.T) (*Indexer, *store.Store, *graph.Store) {
	t.Helper()
	s, err := store.OpenMemory(testDim)
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
		g.Close()
	})
	return New(s, g, fakeEmbedder{}, 4), s, g
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"utils.py": "def helper():\n    return 1\n",
		"main.py":  "from utils import helper\n\ndef run():\n    helper()\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIndexProject(t *testing.T) {
	ix, s, g := newTestIndexer(t)
	root := writeProject(t)

	report, err := ix.IndexProject(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.FilesScanned != 2 || report.FilesIndexed != 2 {
		t.Errorf("scanned/indexed = %d/%d", report.FilesScanned, report.FilesIndexed)
	}
	if report.Errors != 0 {
		t.Errorf("errors = %d", report.Errors)
	}
	if report.TotalChunks == 0 || report.TotalChunks != report.ChunksIndexed {
		t.Errorf("chunk totals = %d indexed / %d total", report.ChunksIndexed, report.TotalChunks)
	}

	project := pathutil.ProjectID(root)
	n, _ := s.CountChunks(project)
	if n != report.TotalChunks {
		t.Errorf("store count = %d", n)
	}

	// run() calls helper() through an explicit import; the edge must exist.
	defs, err := s.FindChunksBySymbol(project, "helper")
	if err != nil || len(defs) != 1 {
		t.Fatalf("helper definitions = %v, %v", defs, err)
	}
	edges, err := g.Edges(project, graph.Filter{TargetID: defs[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("incoming edges to helper = %d", len(edges))
	}
	if edges[0].Metadata["match_type"] != graph.MatchExplicitImport {
		t.Errorf("match_type = %v", edges[0].Metadata["match_type"])
	}
}

func TestIncrementalSkip(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	root := writeProject(t)
	ctx := context.Background()

	if _, err := ix.IndexProject(ctx, root, Options{}); err != nil {
		t.Fatal(err)
	}

	second, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if second.FilesIndexed != 0 || second.FilesSkipped != 2 {
		t.Errorf("unchanged rerun indexed %d / skipped %d", second.FilesIndexed, second.FilesSkipped)
	}

	// Touching one file reprocesses only that file.
	if err := os.WriteFile(filepath.Join(root, "utils.py"),
		[]byte("def helper():\n    return 42\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	third, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if third.FilesIndexed != 1 || third.FilesSkipped != 1 {
		t.Errorf("changed rerun indexed %d / skipped %d", third.FilesIndexed, third.FilesSkipped)
	}
}

func TestForceFullScan(t *testing.T) {
	ix, s, _ := newTestIndexer(t)
	root := writeProject(t)
	ctx := context.Background()

	first, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	forced, err := ix.IndexProject(ctx, root, Options{ForceFullScan: true})
	if err != nil {
		t.Fatal(err)
	}
	if !forced.FullRebuild {
		t.Error("report not marked as full rebuild")
	}
	if forced.InitialChunks != 0 {
		t.Errorf("initial count after wipe = %d", forced.InitialChunks)
	}
	if forced.FilesIndexed != 2 {
		t.Errorf("forced rerun indexed %d files", forced.FilesIndexed)
	}
	if forced.TotalChunks != first.TotalChunks {
		t.Errorf("rebuild total = %d, first total = %d", forced.TotalChunks, first.TotalChunks)
	}

	n, _ := s.CountChunks(pathutil.ProjectID(root))
	if n != forced.TotalChunks {
		t.Errorf("store count = %d", n)
	}
}

func TestFailedReindexKeepsEdges(t *testing.T) {
	s, err := store.OpenMemory(testDim)
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
		g.Close()
	})
	emb := &failingEmbedder{}
	ix := New(s, g, emb, 4)
	root := writeProject(t)
	ctx := context.Background()

	if _, err := ix.IndexProject(ctx, root, Options{}); err != nil {
		t.Fatal(err)
	}
	project := pathutil.ProjectID(root)
	before, err := g.CountEdges(project)
	if err != nil || before == 0 {
		t.Fatalf("edges after initial index = %d, %v", before, err)
	}

	// The caller file changes but its embedding run fails; the old chunks and
	// their outgoing edges must survive for the next attempt.
	if err := os.WriteFile(filepath.Join(root, "main.py"),
		[]byte("from utils import helper\n\ndef run():\n    helper()\n    return helper()\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emb.fail.Store(true)
	report, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	after, _ := g.CountEdges(project)
	if after != before {
		t.Errorf("edges after failed reindex = %d, want %d", after, before)
	}

	// The next healthy run picks the change up and re-links.
	emb.fail.Store(false)
	recovered, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if recovered.FilesIndexed != 1 {
		t.Errorf("recovery run indexed %d files, want 1", recovered.FilesIndexed)
	}
	if n, _ := g.CountEdges(project); n == 0 {
		t.Error("no edges after recovery run")
	}
}

func TestMissingRootFails(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	if _, err := ix.IndexProject(context.Background(), "/nonexistent/project/root", Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestSearchAfterIndex(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	root := writeProject(t)
	ctx := context.Background()

	if _, err := ix.IndexProject(ctx, root, Options{}); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Search(ctx, root, "helper function returning one", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no search results")
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Distance > results[i].Distance {
			t.Error("results not ordered by distance")
		}
	}
}

func TestReferences(t *testing.T) {
	ix, s, _ := newTestIndexer(t)
	root := writeProject(t)
	ctx := context.Background()

	if _, err := ix.IndexProject(ctx, root, Options{}); err != nil {
		t.Fatal(err)
	}

	refs, err := ix.References(root, "helper")
	if err != nil {
		t.Fatal(err)
	}
	project := pathutil.ProjectID(root)
	defs, _ := s.FindChunksBySymbol(project, "helper")
	if len(defs) != 1 {
		t.Fatalf("definitions = %d", len(defs))
	}
	if len(refs[defs[0].ID]) != 1 {
		t.Errorf("references to helper = %d", len(refs[defs[0].ID]))
	}
}

func TestStats(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	root := writeProject(t)
	ctx := context.Background()

	report, err := ix.IndexProject(ctx, root, Options{})
	if err != nil {
		t.Fatal(err)
	}

	stats, edges, err := ix.Stats(root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalChunks != report.TotalChunks {
		t.Errorf("stats total = %d, report total = %d", stats.TotalChunks, report.TotalChunks)
	}
	if stats.ByLanguage["python"] == 0 {
		t.Errorf("by language = %v", stats.ByLanguage)
	}
	if edges == 0 {
		t.Error("no edges counted")
	}
}
