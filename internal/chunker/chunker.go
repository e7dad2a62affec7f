// Package chunker turns raw source files into semantically bounded CodeChunk
// records. Grammar-backed languages go through a profile-driven tree-sitter
// walk; Markdown and Firestore rules have dedicated extractors; everything
// else degrades to a single whole-file text block.
package chunker

import (
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"

	"codeintel/internal/lang"
	"codeintel/internal/model"
	"codeintel/internal/parser"
	"codeintel/internal/pathutil"
)

// maxWalkDepth caps recursion on pathological or adversarial trees.
const maxWalkDepth = 200

// File reads and chunks a single file. ProjectRoot enables cross-file
// heuristics (related-test lookup); it may be empty.
//
// A read failure returns an empty slice. Parse failures and files with no
// structural chunks degrade to a single whole-file text_block chunk; File
// never returns an error.
func File(path string, projectRoot string) []*model.CodeChunk {
	source, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("chunker.read_failed", "file", path, "err", err)
		return nil
	}
	return Source(path, source, projectRoot)
}

// Source chunks in-memory file content. The filename is normalized before it
// is stamped on chunks and hashed into chunk ids.
func Source(path string, source []byte, projectRoot string) []*model.CodeChunk {
	filename := pathutil.Normalize(path)
	base := strings.ToLower(filepath.Base(path))
	ext := strings.ToLower(filepath.Ext(path))

	var (
		chunks []*model.CodeChunk
		deps   []string
	)
	switch {
	case base == "firestore.rules" || ext == ".rules":
		chunks = firestoreChunks(filename, source)
	case ext == ".md" || ext == ".markdown":
		chunks = markdownChunks(filename, source)
	default:
		chunks, deps = treeChunks(filename, ext, source)
	}

	if len(chunks) == 0 {
		chunks = []*model.CodeChunk{fallbackChunk(filename, source)}
	}

	stampFileMetadata(chunks, path, source, deps, projectRoot)
	for _, c := range chunks {
		c.ID = model.ChunkID(c.Filename, c.StartLine, c.EndLine, c.Content)
	}
	return chunks
}

// treeChunks runs the profile-driven tree-sitter walk, returning structural
// chunks plus the file-level import strings seen along the way. Any failure
// yields nil chunks so the caller falls back to a whole-file chunk.
func treeChunks(filename, ext string, source []byte) ([]*model.CodeChunk, []string) {
	spec := lang.ForExtension(ext)
	if spec == nil {
		return nil, nil
	}
	tree, err := parser.Parse(spec.Language, source)
	if err != nil {
		slog.Warn("chunker.parse_failed", "file", filename, "language", spec.Language, "err", err)
		return nil, nil
	}
	defer tree.Close()

	w := newWalker(spec, filename, source)
	w.walk(tree.RootNode(), "", 0)
	return w.chunks, sortedUnique(w.imports)
}

type walker struct {
	spec     *lang.LanguageSpec
	filename string
	source   []byte
	chunks   []*model.CodeChunk
	imports  []string

	funcTypes    map[string]bool
	classTypes   map[string]bool
	extraTypes   map[string]bool
	topOnlyTypes map[string]bool
	moduleTypes  map[string]bool
	wrapperTypes map[string]bool
	importTypes  map[string]bool
}

func newWalker(spec *lang.LanguageSpec, filename string, source []byte) *walker {
	return &walker{
		spec:         spec,
		filename:     filename,
		source:       source,
		funcTypes:    toSet(spec.FunctionNodeTypes),
		classTypes:   toSet(spec.ClassNodeTypes),
		extraTypes:   toSet(spec.ExtraChunkNodeTypes),
		topOnlyTypes: toSet(spec.TopLevelOnlyNodeTypes),
		moduleTypes:  toSet(spec.ModuleNodeTypes),
		wrapperTypes: toSet(spec.DecoratedWrapperTypes),
		importTypes:  toSet(spec.ImportNodeTypes),
	}
}

func (w *walker) walk(node *tree_sitter.Node, parentSymbol string, depth int) {
	if node == nil || depth > maxWalkDepth {
		return
	}
	kind := node.Kind()

	// Imports only count at file scope; a chunk walk never descends into a
	// captured function, so function-local imports are naturally excluded.
	// Recursion continues below: an export_statement both names a module
	// source (re-exports) and wraps exported declarations, which must still
	// become chunks.
	if w.importTypes[kind] {
		w.imports = append(w.imports, importTargets(node, w.spec.Language, w.source)...)
	}
	if w.spec.CommonJSRequire && kind == "call_expression" {
		if target := requireTarget(node, w.source); target != "" {
			w.imports = append(w.imports, target)
		}
	}

	capture := w.funcTypes[kind] || w.classTypes[kind] || w.extraTypes[kind]
	if w.topOnlyTypes[kind] {
		// Only provable module scope counts; nested occurrences are skipped
		// as chunks but their children are still visited.
		capture = capture || w.atModuleScope(node)
	}

	if capture {
		chunk := w.capture(node, parentSymbol)
		switch {
		case w.classTypes[kind]:
			// Nested methods become their own chunks under this class.
			next := parentSymbol
			if chunk.SymbolName != "" {
				next = chunk.SymbolName
			}
			for i := uint(0); i < node.ChildCount(); i++ {
				w.walk(node.Child(i), next, depth+1)
			}
			return
		case w.funcTypes[kind]:
			// The body is wholly represented by this chunk.
			return
		}
		// Extra and top-level-only kinds keep recursing with the same parent.
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i), parentSymbol, depth+1)
	}
}

// atModuleScope reports whether the node's ancestor chain reaches file scope
// without crossing a function or class definition.
func (w *walker) atModuleScope(node *tree_sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		kind := p.Kind()
		if w.moduleTypes[kind] {
			return true
		}
		if w.funcTypes[kind] || w.classTypes[kind] {
			return false
		}
	}
	return false
}

func (w *walker) capture(node *tree_sitter.Node, parentSymbol string) *model.CodeChunk {
	startByte := node.StartByte()
	endByte := node.EndByte()
	startLine := int(node.StartPosition().Row) + 1
	endLine := int(node.EndPosition().Row) + 1

	// Split declarations: extend the chunk over the sibling body so the
	// signature and body form one contiguous span.
	var bodySibling *tree_sitter.Node
	if w.spec.MergeBodySibling && w.funcTypes[node.Kind()] {
		if sib := node.NextNamedSibling(); sib != nil && sib.Kind() == w.spec.BodySiblingType {
			bodySibling = sib
			endByte = sib.EndByte()
			endLine = int(sib.EndPosition().Row) + 1
		}
	}

	content := string(w.source[startByte:endByte])

	chunk := &model.CodeChunk{
		Filename:     w.filename,
		StartLine:    startLine,
		EndLine:      endLine,
		Content:      content,
		Type:         node.Kind(),
		Language:     string(w.spec.Language),
		ParentSymbol: parentSymbol,
	}

	chunk.SymbolName = symbolName(node, w.spec, w.source)
	chunk.Signature = signature(node, chunk.SymbolName, w.spec, w.source)
	chunk.Docstring = docstring(node, w.spec, w.source)
	chunk.Decorators = decorators(node, w.spec, w.source)

	// Usage scanning is rooted at the decorated wrapper when one exists, so
	// decorator call expressions count as usages of the decorated chunk.
	scanRoot := node
	if p := node.Parent(); p != nil && w.wrapperTypes[p.Kind()] {
		scanRoot = p
	}
	chunk.Complexity = complexity(scanRoot, w.spec, w.source)
	chunk.Usages = extractUsages(scanRoot, w.spec, w.source)
	if bodySibling != nil {
		chunk.Complexity += complexity(bodySibling, w.spec, w.source) - 1
		chunk.Usages = append(chunk.Usages, extractUsages(bodySibling, w.spec, w.source)...)
	}

	w.chunks = append(w.chunks, chunk)
	return chunk
}

// fallbackChunk wraps the whole file in one text_block chunk.
func fallbackChunk(filename string, source []byte) *model.CodeChunk {
	content := string(source)
	lines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lines++
	}
	if lines == 0 {
		lines = 1
	}
	return &model.CodeChunk{
		Filename:  filename,
		StartLine: 1,
		EndLine:   lines,
		Content:   content,
		Type:      "text_block",
		Language:  string(lang.Text),
	}
}

// stampFileMetadata attaches file-level fields onto every chunk of the file.
func stampFileMetadata(chunks []*model.CodeChunk, path string, source []byte, deps []string, projectRoot string) {
	ext := strings.ToLower(filepath.Ext(path))
	spec := lang.ForExtension(ext)

	tests := relatedTests(path, spec, projectRoot)
	hash := fileHash(source)

	for _, c := range chunks {
		c.Dependencies = deps
		c.RelatedTests = tests
		c.ContentHash = hash
	}
}

// fileHash is the whole-file content hash used for incremental-scan
// comparison.
func fileHash(source []byte) string {
	h := xxh3.Hash128(source).Bytes()
	return hex.EncodeToString(h[:])
}

// FileHash exposes the content hash for the orchestrator's skip decision.
func FileHash(source []byte) string {
	return fileHash(source)
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

func sortedUnique(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}
