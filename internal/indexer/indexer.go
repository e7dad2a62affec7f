// Package indexer orchestrates a full index run: discovery, incremental
// change detection, chunking, embedding, storage, and a second pass that
// links symbol usages into the knowledge graph.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"codeintel/internal/chunker"
	"codeintel/internal/discover"
	"codeintel/internal/embedder"
	"codeintel/internal/gitmeta"
	"codeintel/internal/graph"
	"codeintel/internal/linker"
	"codeintel/internal/model"
	"codeintel/internal/pathutil"
	"codeintel/internal/store"
)

// Options configures one index run.
type Options struct {
	// ForceFullScan wipes the project's chunks and edges before indexing.
	ForceFullScan bool
	IncludeGlobs  []string
	ExcludeGlobs  []string
}

// Report summarizes an index run.
type Report struct {
	ProjectRoot   string
	Branch        string
	FilesScanned  int
	FilesSkipped  int
	FilesIndexed  int
	ChunksIndexed int
	Errors        int
	InitialChunks int
	TotalChunks   int
	FullRebuild   bool
}

// Indexer coordinates the stores, the embedding client, and the linker.
type Indexer struct {
	store           *store.Store
	graph           *graph.Store
	embedder        embedder.Embedder
	fileConcurrency int

	mu       sync.Mutex
	projects map[string]*sync.Mutex
}

// New builds an Indexer. fileConcurrency bounds parallel file processing.
func New(s *store.Store, g *graph.Store, e embedder.Embedder, fileConcurrency int) *Indexer {
	if fileConcurrency <= 0 {
		fileConcurrency = 8
	}
	return &Indexer{
		store:           s,
		graph:           g,
		embedder:        e,
		fileConcurrency: fileConcurrency,
		projects:        make(map[string]*sync.Mutex),
	}
}

// projectLock serializes concurrent index runs targeting the same project.
func (ix *Indexer) projectLock(project string) *sync.Mutex {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.projects[project]
	if !ok {
		m = &sync.Mutex{}
		ix.projects[project] = m
	}
	return m
}

// IndexProject runs the two-pass pipeline over one project root.
func (ix *Indexer) IndexProject(ctx context.Context, root string, opts Options) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	normRoot := pathutil.Normalize(root)
	project := pathutil.ProjectID(normRoot)

	lock := ix.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	report := &Report{
		ProjectRoot: normRoot,
		Branch:      gitmeta.Branch(ctx, normRoot),
		FullRebuild: opts.ForceFullScan,
	}

	// A scoped rebuild must not destroy index data outside its globs, so the
	// wipe only happens for an unscoped force.
	scoped := len(opts.IncludeGlobs) > 0 || len(opts.ExcludeGlobs) > 0
	if opts.ForceFullScan && !scoped {
		slog.Info("indexer.full_rebuild", "project", normRoot)
		if err := ix.store.ClearProject(project); err != nil {
			return nil, fmt.Errorf("clear chunks: %w", err)
		}
		if err := ix.graph.Clear(project); err != nil {
			return nil, fmt.Errorf("clear graph: %w", err)
		}
	}

	report.InitialChunks, err = ix.store.CountChunks(project)
	if err != nil {
		return nil, err
	}

	files, err := discover.Discover(ctx, normRoot, &discover.Options{
		IncludeGlobs: opts.IncludeGlobs,
		ExcludeGlobs: opts.ExcludeGlobs,
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	report.FilesScanned = len(files)

	// Forced runs reprocess everything regardless of stored hashes.
	var knownHashes map[string]string
	if !opts.ForceFullScan {
		knownHashes, err = ix.store.GetProjectHashes(project)
		if err != nil {
			return nil, err
		}
	}

	// Hash screen before anything expensive: unchanged files are dropped here
	// so neither git subprocesses nor embedding runs are spent on them.
	var pending []pendingFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source, err := os.ReadFile(f.Path)
		if err != nil {
			report.Errors++
			slog.Error("indexer.read_failed", "file", f.Path, "err", err)
			continue
		}
		normPath := pathutil.Normalize(f.Path)
		if known, ok := knownHashes[normPath]; ok && known == chunker.FileHash(source) {
			report.FilesSkipped++
			continue
		}
		pending = append(pending, pendingFile{path: f.Path, normPath: normPath, source: source})
	}

	gitInfos := gitmeta.BatchFileInfo(ctx, pendingPaths(pending), normRoot)

	// Pass 1: chunk, embed, and store changed files. Linkable chunks are
	// collected so pass 2 runs only after every definition is persisted.
	var (
		collectMu sync.Mutex
		toLink    []*model.CodeChunk
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.fileConcurrency)
	for _, pf := range pending {
		g.Go(func() error {
			chunks, err := ix.processFile(gctx, project, normRoot, pf, gitInfos)
			collectMu.Lock()
			defer collectMu.Unlock()
			if err != nil {
				report.Errors++
				slog.Error("indexer.file_failed", "file", pf.path, "err", err)
				return nil
			}
			report.FilesIndexed++
			report.ChunksIndexed += len(chunks)
			toLink = append(toLink, chunks...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Pass 2: every changed chunk's usages resolve against the now-complete
	// chunk store.
	l := linker.New(ix.store, ix.graph)
	for _, chunk := range toLink {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.LinkChunkUsages(project, normRoot, chunk); err != nil {
			report.Errors++
			slog.Error("indexer.link_failed", "chunk", chunk.ID, "err", err)
		}
	}

	report.TotalChunks, err = ix.store.CountChunks(project)
	if err != nil {
		return nil, err
	}
	slog.Info("indexer.done",
		"project", normRoot,
		"scanned", report.FilesScanned,
		"skipped", report.FilesSkipped,
		"indexed", report.FilesIndexed,
		"chunks", report.ChunksIndexed,
		"errors", report.Errors)
	return report, nil
}

// pendingFile is a changed file that survived the hash screen, carried with
// its already-read content so pass 1 does not read it again.
type pendingFile struct {
	path     string
	normPath string
	source   []byte
}

// processFile chunks, embeds, and stores one changed file.
func (ix *Indexer) processFile(ctx context.Context, project, root string,
	pf pendingFile, gitInfos map[string]gitmeta.FileInfo) ([]*model.CodeChunk, error) {

	chunks := chunker.Source(pf.path, pf.source, root)
	if len(chunks) == 0 {
		return nil, nil
	}

	if gi, ok := gitInfos[pf.path]; ok {
		for _, c := range chunks {
			c.Author = gi.Author
			c.LastModified = gi.LastModified
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbeddingText()
	}

	// Snapshot the previous chunk ids first; their outgoing edges become
	// stale only once the replacement rows are stored, so a failed embed or
	// upsert leaves the old graph intact.
	old, err := ix.store.ChunksInFile(project, pf.normPath)
	if err != nil {
		return nil, fmt.Errorf("lookup old chunks: %w", err)
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if err := ix.store.UpsertChunks(project, chunks, vectors); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}

	for _, o := range old {
		_ = ix.graph.DeleteBySource(project, o.ID)
	}
	return chunks, nil
}

func pendingPaths(pending []pendingFile) []string {
	paths := make([]string, len(pending))
	for i, pf := range pending {
		paths[i] = pf.path
	}
	return paths
}

// Search embeds the query and returns the nearest chunks in the project.
func (ix *Indexer) Search(ctx context.Context, root, query string, limit int) ([]store.SearchResult, error) {
	project := pathutil.ProjectID(root)
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.store.Search(project, vec, limit)
}

// References returns the incoming call edges of every chunk defining the
// given symbol, together with the referencing chunks.
func (ix *Indexer) References(root, symbol string) (map[string][]*graph.Edge, error) {
	project := pathutil.ProjectID(root)
	defs, err := ix.store.FindChunksBySymbol(project, symbol)
	if err != nil {
		return nil, err
	}
	refs := make(map[string][]*graph.Edge, len(defs))
	for _, def := range defs {
		edges, err := ix.graph.Edges(project, graph.Filter{TargetID: def.ID})
		if err != nil {
			return nil, err
		}
		refs[def.ID] = edges
	}
	return refs, nil
}

// Stats returns aggregate index metrics for one project.
func (ix *Indexer) Stats(root string) (*store.DetailedStats, int, error) {
	project := pathutil.ProjectID(root)
	stats, err := ix.store.GetDetailedStats(project)
	if err != nil {
		return nil, 0, err
	}
	edges, err := ix.graph.CountEdges(project)
	if err != nil {
		return nil, 0, err
	}
	return stats, edges, nil
}
