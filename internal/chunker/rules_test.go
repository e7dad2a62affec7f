package chunker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFirestoreNestedMatchBlocks(t *testing.T) {
	source := []byte(`rules_version = '2';
service cloud.firestore {
  match /posts/{post} {
    allow read: if true;
    match /comments/{comment} {
      allow write: if request.auth != null;
    }
  }
}
`)
	chunks := Source("/proj/firestore.rules", source, "")

	var matches []*struct {
		path    string
		content string
	}
	for _, c := range chunks {
		if c.Type == "firestore_match" {
			matches = append(matches, &struct {
				path    string
				content string
			}{c.SymbolName, c.Content})
		}
	}
	if len(matches) != 2 {
		t.Fatalf("got %d match chunks, want 2", len(matches))
	}

	outer, inner := matches[0], matches[1]
	if outer.path != "/posts/{post}" {
		t.Errorf("outer path = %q", outer.path)
	}
	if inner.path != "/comments/{comment}" {
		t.Errorf("inner path = %q", inner.path)
	}
	if !strings.Contains(outer.content, inner.content) {
		t.Error("outer block does not contain inner block")
	}
	if strings.Count(outer.content, "{") != strings.Count(outer.content, "}") {
		t.Error("outer block braces unbalanced")
	}
}

func TestFirestoreFallbackWholeFile(t *testing.T) {
	chunks := Source("/proj/firestore.rules", []byte("rules_version = '2';\n"), "")
	if len(chunks) != 1 || chunks[0].Type != "firestore_file" {
		t.Fatalf("expected single firestore_file chunk, got %+v", chunks)
	}
}

func TestMarkdownDiagramChunks(t *testing.T) {
	source := []byte("# Architecture\n\n```mermaid\ngraph TD\n  A[Indexer] --> B[Chunk Store]\n  B --> C{Linked?}\n```\n\nSome prose.\n")
	chunks := Source("/proj/README.md", source, "")

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	d := chunks[0]
	if d.Type != "markdown_diagram" {
		t.Fatalf("type = %s", d.Type)
	}
	if d.SymbolName != "graph TD" {
		t.Errorf("symbol = %q", d.SymbolName)
	}
	for _, label := range []string{"Indexer", "Chunk Store", "Linked?"} {
		if !strings.Contains(d.Docstring, label) {
			t.Errorf("docstring missing label %q: %q", label, d.Docstring)
		}
	}
}

func TestMarkdownWithoutDiagramFallsBack(t *testing.T) {
	chunks := Source("/proj/README.md", []byte("# Title\n\nJust prose.\n"), "")
	if len(chunks) != 1 || chunks[0].Type != "text_block" {
		t.Fatalf("expected text_block fallback, got %+v", chunks)
	}
}

func TestRelatedTests(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "service.py")
	if err := os.WriteFile(src, []byte("def f():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "tests"), 0o755); err != nil {
		t.Fatal(err)
	}
	testFile := filepath.Join(root, "tests", "test_service.py")
	if err := os.WriteFile(testFile, []byte("def test_f():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks := File(src, root)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	if len(chunks[0].RelatedTests) != 1 {
		t.Fatalf("related tests = %v", chunks[0].RelatedTests)
	}
	if !strings.HasSuffix(chunks[0].RelatedTests[0], "test_service.py") {
		t.Errorf("related test = %q", chunks[0].RelatedTests[0])
	}
}
