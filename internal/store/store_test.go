package store

import (
	"testing"

	"codeintel/internal/model"
)

const testDim = 8

func testChunk(id, filename, symbol string) *model.CodeChunk {
	return &model.CodeChunk{
		ID:         id,
		Filename:   filename,
		StartLine:  1,
		EndLine:    3,
		Content:    "def " + symbol + "(): pass",
		Type:       "function_definition",
		Language:   "python",
		SymbolName: symbol,
	}
}

func testVector(seed float32) []float32 {
	v := make([]float32, testDim)
	for i := range v {
		v[i] = seed + float32(i)*0.01
	}
	return v
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(testDim)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndLookup(t *testing.T) {
	s := openTestStore(t)

	chunks := []*model.CodeChunk{
		testChunk("id1", "/p/a.py", "helper"),
		testChunk("id2", "/p/a.py", "main"),
	}
	vectors := [][]float32{testVector(0.1), testVector(0.2)}
	if err := s.UpsertChunks("proj", chunks, vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.FindChunksBySymbol("proj", "helper")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "id1" {
		t.Errorf("FindChunksBySymbol = %+v", got)
	}

	byID, err := s.GetChunkByID("proj", "id2")
	if err != nil {
		t.Fatal(err)
	}
	if byID == nil || byID.SymbolName != "main" {
		t.Errorf("GetChunkByID = %+v", byID)
	}

	n, err := s.CountChunks("proj")
	if err != nil || n != 2 {
		t.Errorf("CountChunks = %d, %v", n, err)
	}
}

func TestIdempotentUpsert(t *testing.T) {
	s := openTestStore(t)

	first := []*model.CodeChunk{
		testChunk("old1", "/p/a.py", "helper"),
		testChunk("old2", "/p/a.py", "main"),
	}
	if err := s.UpsertChunks("proj", first, [][]float32{testVector(0.1), testVector(0.2)}); err != nil {
		t.Fatal(err)
	}

	// Second upsert of the same file with one chunk replaces both old rows.
	second := []*model.CodeChunk{testChunk("new1", "/p/a.py", "helper")}
	if err := s.UpsertChunks("proj", second, [][]float32{testVector(0.3)}); err != nil {
		t.Fatal(err)
	}

	n, _ := s.CountChunks("proj")
	if n != 1 {
		t.Errorf("chunk count after re-upsert = %d, want 1", n)
	}
	if c, _ := s.GetChunkByID("proj", "old1"); c != nil {
		t.Error("stale chunk id still resolvable after re-upsert")
	}
	if c, _ := s.GetChunkByID("proj", "new1"); c == nil {
		t.Error("new chunk id not resolvable")
	}
}

func TestProjectIsolation(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpsertChunks("projA", []*model.CodeChunk{testChunk("a1", "/a/x.py", "shared")},
		[][]float32{testVector(0.1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertChunks("projB", []*model.CodeChunk{testChunk("b1", "/b/x.py", "shared")},
		[][]float32{testVector(0.9)}); err != nil {
		t.Fatal(err)
	}

	inB, err := s.FindChunksBySymbol("projB", "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(inB) != 1 || inB[0].ID != "b1" {
		t.Errorf("projB lookup leaked: %+v", inB)
	}

	results, err := s.Search("projA", testVector(0.9), 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Chunk.ID == "b1" {
			t.Error("search crossed project boundary")
		}
	}

	if err := s.ClearProject("projA"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountChunks("projA"); n != 0 {
		t.Errorf("projA count after clear = %d", n)
	}
	if n, _ := s.CountChunks("projB"); n != 1 {
		t.Errorf("projB count after clearing A = %d", n)
	}
}

func TestSearchRanksNearest(t *testing.T) {
	s := openTestStore(t)

	chunks := []*model.CodeChunk{
		testChunk("near", "/p/a.py", "near"),
		testChunk("far", "/p/b.py", "far"),
	}
	if err := s.UpsertChunks("proj", chunks, [][]float32{testVector(0.1), testVector(5.0)}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search("proj", testVector(0.1), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Chunk.ID != "near" {
		t.Errorf("nearest = %s", results[0].Chunk.ID)
	}
	if results[0].Distance > results[1].Distance {
		t.Error("results not ordered by distance")
	}
}

func TestGetProjectHashes(t *testing.T) {
	s := openTestStore(t)

	a := testChunk("h1", "/p/a.py", "f")
	a.ContentHash = "hashA"
	b := testChunk("h2", "/p/b.py", "g")
	b.ContentHash = "hashB"
	if err := s.UpsertChunks("proj", []*model.CodeChunk{a, b},
		[][]float32{testVector(0.1), testVector(0.2)}); err != nil {
		t.Fatal(err)
	}

	hashes, err := s.GetProjectHashes("proj")
	if err != nil {
		t.Fatal(err)
	}
	if hashes["/p/a.py"] != "hashA" || hashes["/p/b.py"] != "hashB" {
		t.Errorf("hashes = %v", hashes)
	}
}

func TestRoundTripMetadata(t *testing.T) {
	s := openTestStore(t)

	c := testChunk("m1", "/p/a.py", "f")
	c.Decorators = []string{"@cached"}
	c.Dependencies = []string{"os", "service"}
	c.RelatedTests = []string{"/p/tests/test_a.py"}
	c.Author = "dev"
	c.Complexity = 7
	if err := s.UpsertChunks("proj", []*model.CodeChunk{c}, [][]float32{testVector(0.1)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetChunkByID("proj", "m1")
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Dependencies) != 2 || got.Dependencies[1] != "service" {
		t.Errorf("dependencies = %v", got.Dependencies)
	}
	if len(got.Decorators) != 1 || got.Decorators[0] != "@cached" {
		t.Errorf("decorators = %v", got.Decorators)
	}
	if got.Complexity != 7 || got.Author != "dev" {
		t.Errorf("complexity/author = %d/%s", got.Complexity, got.Author)
	}
}

func TestDetailedStats(t *testing.T) {
	s := openTestStore(t)

	a := testChunk("s1", "/p/a.py", "f")
	a.Complexity = 2
	b := testChunk("s2", "/p/b.go", "g")
	b.Language = "go"
	b.Type = "function_declaration"
	b.Complexity = 6
	if err := s.UpsertChunks("proj", []*model.CodeChunk{a, b},
		[][]float32{testVector(0.1), testVector(0.2)}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.GetDetailedStats("proj")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalChunks != 2 || stats.TotalFiles != 2 {
		t.Errorf("totals = %d chunks / %d files", stats.TotalChunks, stats.TotalFiles)
	}
	if stats.ByLanguage["python"] != 1 || stats.ByLanguage["go"] != 1 {
		t.Errorf("by language = %v", stats.ByLanguage)
	}
	if stats.MaxComplexity != 6 {
		t.Errorf("max complexity = %d", stats.MaxComplexity)
	}

	empty, err := s.GetDetailedStats("nosuch")
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalChunks != 0 {
		t.Errorf("empty project stats = %+v", empty)
	}
}

func TestEmbeddingCache(t *testing.T) {
	s := openTestStore(t)

	if hit, _ := s.GetCachedEmbedding("bge-m3", "text"); hit != nil {
		t.Error("unexpected cache hit")
	}
	want := testVector(0.5)
	if err := s.PutCachedEmbedding("bge-m3", "text", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetCachedEmbedding("bge-m3", "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != testDim || got[0] != want[0] {
		t.Errorf("cached vector = %v", got)
	}
	// Different model must miss.
	if hit, _ := s.GetCachedEmbedding("other-model", "text"); hit != nil {
		t.Error("cache hit across models")
	}
}

func TestPruneEmbeddingCache(t *testing.T) {
	s := openTestStore(t)

	texts := []string{"alpha", "beta", "gamma"}
	for i, text := range texts {
		if err := s.PutCachedEmbedding("bge-m3", text, testVector(float32(i))); err != nil {
			t.Fatal(err)
		}
	}

	// A generous cap keeps everything.
	if err := s.PruneEmbeddingCache(10); err != nil {
		t.Fatal(err)
	}
	if n := cachedCount(s, texts); n != 3 {
		t.Errorf("entries after no-op prune = %d", n)
	}

	if err := s.PruneEmbeddingCache(2); err != nil {
		t.Fatal(err)
	}
	if n := cachedCount(s, texts); n != 2 {
		t.Errorf("entries after prune to 2 = %d", n)
	}
}

func cachedCount(s *Store, texts []string) int {
	n := 0
	for _, text := range texts {
		if hit, _ := s.GetCachedEmbedding("bge-m3", text); hit != nil {
			n++
		}
	}
	return n
}
