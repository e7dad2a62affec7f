// Package linker resolves symbol usages extracted during chunking into
// knowledge graph edges. Import-resolved targets are tagged explicit_import;
// when no import points at the symbol, a global name match is recorded as the
// lower-confidence fallback.
package linker

import (
	"log/slog"

	"codeintel/internal/graph"
	"codeintel/internal/lang"
	"codeintel/internal/model"
	"codeintel/internal/resolve"
	"codeintel/internal/store"
)

// Linker wires usages from the chunk store into the knowledge graph.
type Linker struct {
	store     *store.Store
	graph     *graph.Store
	resolvers *resolve.Resolvers
}

// New builds a Linker around the given stores. Resolver caches live for the
// lifetime of the Linker, matching the duration of one index run.
func New(s *store.Store, g *graph.Store) *Linker {
	return &Linker{
		store:     s,
		graph:     g,
		resolvers: resolve.NewResolvers(),
	}
}

// LinkChunkUsages creates call edges for every usage inside one chunk.
func (l *Linker) LinkChunkUsages(project, projectRoot string, chunk *model.CodeChunk) error {
	if len(chunk.Usages) == 0 {
		return nil
	}

	resolver := l.resolvers.ForLanguage(lang.Language(chunk.Language))

	for _, usage := range chunk.Usages {
		targets := l.resolveTargets(project, projectRoot, chunk, resolver, usage.Name)
		for _, target := range targets {
			if target.chunk.ID == chunk.ID {
				continue
			}
			meta := map[string]any{
				"context":    usage.Context,
				"line":       usage.Line,
				"character":  usage.Character,
				"match_type": target.matchType,
			}
			if err := l.graph.AddEdge(project, chunk.ID, target.chunk.ID, "call", meta); err != nil {
				return err
			}
		}
	}
	return nil
}

type linkTarget struct {
	chunk     *model.CodeChunk
	matchType string
}

// resolveTargets finds candidate definition chunks for one symbol name.
// Each of the chunk's import strings is resolved to a file; a definition of
// the symbol in a resolved file is an explicit-import match. Without one, all
// same-named symbols in the project match by name.
func (l *Linker) resolveTargets(project, projectRoot string, chunk *model.CodeChunk,
	resolver resolve.Resolver, name string) []linkTarget {

	var targets []linkTarget

	if resolver != nil && len(chunk.Dependencies) > 0 {
		for _, dep := range chunk.Dependencies {
			resolved, ok := resolver.Resolve(chunk.Filename, dep, projectRoot)
			if !ok {
				continue
			}
			matches, err := l.store.FindChunksBySymbolInFile(project, name, resolved)
			if err != nil {
				slog.Warn("linker.lookup_failed", "symbol", name, "file", resolved, "err", err)
				continue
			}
			for _, m := range matches {
				targets = append(targets, linkTarget{chunk: m, matchType: graph.MatchExplicitImport})
			}
		}
	}

	if len(targets) == 0 {
		matches, err := l.store.FindChunksBySymbol(project, name)
		if err != nil {
			slog.Warn("linker.global_lookup_failed", "symbol", name, "err", err)
			return nil
		}
		for _, m := range matches {
			targets = append(targets, linkTarget{chunk: m, matchType: graph.MatchName})
		}
	}
	return targets
}
