// Package model defines the core data model shared by the chunker, the
// stores, and the linker.
package model

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// SymbolUsage is a single reference to a named symbol found inside a chunk.
// Usages are produced during chunking and consumed once by the linker; they
// are never persisted.
type SymbolUsage struct {
	Name      string
	Line      int // 1-based
	Character int // 0-based column
	Context   string
	// TargetFile is populated after import resolution when the defining file
	// is known. It may stay empty when resolution is graph-side only.
	TargetFile string
}

// Usage contexts.
const (
	ContextCall          = "call"
	ContextInstantiation = "instantiation"
)

// CodeChunk is a semantically bounded span of source text together with the
// metadata stamped onto it during parsing.
type CodeChunk struct {
	ID         string
	Filename   string // normalized absolute path
	StartLine  int    // 1-based, inclusive
	EndLine    int    // 1-based, inclusive
	Content    string
	Type       string // grammar node kind, or text_block / markdown_diagram / firestore_match
	Language   string
	SymbolName string
	// ParentSymbol is the enclosing class/impl/trait name for nested methods.
	ParentSymbol string
	Signature    string
	Docstring    string
	Decorators   []string

	// Complexity is a structural approximation of cyclomatic complexity.
	Complexity int

	// File-level metadata, identical for every chunk of the same file.
	Dependencies []string
	RelatedTests []string
	Author       string
	LastModified string
	ContentHash  string

	// Usages are transient: carried from the chunker to the linker, never
	// written to the chunk store.
	Usages []SymbolUsage
}

// ChunkID computes the content-addressable identity of a chunk. Identical
// (normalized filename, line range, content) always yields the same id, which
// re-indexing and graph edge endpoints depend on. Line endings are normalized
// so the id does not change between checkouts with different EOL settings.
func ChunkID(normalizedFilename string, startLine, endLine int, content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	raw := fmt.Sprintf("%s:%d:%d:%s", normalizedFilename, startLine, endLine, content)
	h := xxh3.Hash128([]byte(raw)).Bytes()
	return hex.EncodeToString(h[:])
}

// EmbeddingText synthesizes the string sent to the embedding provider.
// Language, chunk type, and symbol name are prepended so identical code with
// different names embeds differently.
func (c *CodeChunk) EmbeddingText() string {
	header := c.Language + " " + c.Type
	if c.SymbolName != "" {
		header += " " + c.SymbolName
	}
	return header + "\n" + c.Content
}
