// Package resolve maps raw import strings to file paths inside the project.
// Each language gets its own resolver; all of them reject resolutions that
// would escape the project root.
package resolve

import (
	"os"

	"codeintel/internal/lang"
	"codeintel/internal/pathutil"
)

// Resolver resolves one import string found in sourceFile to an absolute
// normalized file path within projectRoot. ok is false for external,
// unresolvable, or out-of-root imports; that is an expected outcome, not an
// error.
type Resolver interface {
	Resolve(sourceFile, importString, projectRoot string) (path string, ok bool)
}

// Resolvers holds the per-run resolver set. Construct one per indexing run so
// cached project metadata (package names, path aliases) has a clear lifetime.
type Resolvers struct {
	python *PythonResolver
	js     *JSResolver
	dart   *DartResolver
}

// NewResolvers builds a fresh resolver set with empty caches.
func NewResolvers() *Resolvers {
	return &Resolvers{
		python: NewPythonResolver(),
		js:     NewJSResolver(),
		dart:   NewDartResolver(),
	}
}

// ForLanguage returns the resolver for a language, or nil when the language
// has no import resolution support.
func (r *Resolvers) ForLanguage(l lang.Language) Resolver {
	switch l {
	case lang.Python:
		return r.python
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		return r.js
	case lang.Dart:
		return r.dart
	}
	return nil
}

// contained normalizes a candidate path and enforces the project-root
// containment invariant. Escaping the root is rejected even when the target
// exists on disk.
func contained(path, projectRoot string) (string, bool) {
	normalized := pathutil.Normalize(path)
	if !pathutil.Within(normalized, projectRoot) {
		return "", false
	}
	return normalized, true
}

// isFile reports whether path exists and is a regular file.
func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
