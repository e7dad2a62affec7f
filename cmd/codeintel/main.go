package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"codeintel/internal/config"
	"codeintel/internal/embedder"
	"codeintel/internal/graph"
	"codeintel/internal/indexer"
	"codeintel/internal/store"
	"codeintel/internal/watcher"
)

var version = "dev"

const usage = `usage: codeintel <command> [flags] <args>

commands:
  index  [--force] [--include GLOB] [--exclude GLOB] <root>
  watch  <root> [<root>...]
  search <root> <query>
  refs   <root> <symbol>
  stats  <root>
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("codeintel", version)
		os.Exit(0)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config err=%v", err)
	}

	s, err := store.OpenPath(cfg.ChunkDBPath(), cfg.EmbeddingDims)
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}
	defer s.Close()

	g, err := graph.OpenPath(cfg.GraphDBPath())
	if err != nil {
		log.Fatalf("graph open err=%v", err)
	}
	defer g.Close()

	emb := embedder.NewOllamaClient(cfg.EmbeddingEndpoint, cfg.EmbeddingModel, cfg.EmbeddingDims,
		embedder.WithCache(s),
		embedder.WithConcurrency(cfg.EmbeddingConcurrency))

	ix := indexer.New(s, g, emb, cfg.FileConcurrency)
	ctx := context.Background()

	switch os.Args[1] {
	case "index":
		err = runIndex(ctx, ix, os.Args[2:])
		if err == nil {
			err = s.PruneEmbeddingCache(cfg.EmbeddingCacheMax)
		}
	case "watch":
		err = runWatch(ctx, ix, os.Args[2:])
	case "search":
		err = runSearch(ctx, ix, os.Args[2:])
	case "refs":
		err = runRefs(ix, os.Args[2:])
	case "stats":
		err = runStats(ix, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s err=%v", os.Args[1], err)
	}
}

func runIndex(ctx context.Context, ix *indexer.Indexer, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	force := fs.Bool("force", false, "wipe the project index and rebuild")
	var includes, excludes stringList
	fs.Var(&includes, "include", "glob to include (repeatable)")
	fs.Var(&excludes, "exclude", "glob to exclude (repeatable, wins over include)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("index needs exactly one project root")
	}

	report, err := ix.IndexProject(ctx, fs.Arg(0), indexer.Options{
		ForceFullScan: *force,
		IncludeGlobs:  includes,
		ExcludeGlobs:  excludes,
	})
	if err != nil {
		return err
	}

	op := "Incremental Update"
	if report.FullRebuild {
		op = "Full Rebuild"
	}
	fmt.Printf("Indexing complete for project: %s\n", report.ProjectRoot)
	if report.Branch != "" {
		fmt.Printf("Branch: %s\n", report.Branch)
	}
	fmt.Printf("Operation: %s\n", op)
	fmt.Printf("Files scanned: %d (skipped unchanged: %d)\n", report.FilesScanned, report.FilesSkipped)
	fmt.Printf("Chunks added/updated: %d\n", report.ChunksIndexed)
	fmt.Printf("Total chunks in index: %d (delta: %+d)\n",
		report.TotalChunks, report.TotalChunks-report.InitialChunks)
	fmt.Printf("Errors: %d\n", report.Errors)
	return nil
}

func runWatch(ctx context.Context, ix *indexer.Indexer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("watch needs at least one project root")
	}

	// Bring every root up to date before watching for deltas.
	for _, root := range args {
		if _, err := ix.IndexProject(ctx, root, indexer.Options{}); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w := watcher.New(func(ctx context.Context, root string) error {
		_, err := ix.IndexProject(ctx, root, indexer.Options{})
		return err
	}, args)
	fmt.Printf("Watching %d project(s); Ctrl-C to stop\n", len(args))
	w.Run(ctx)
	return nil
}

func runSearch(ctx context.Context, ix *indexer.Indexer, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "maximum results")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("search needs a project root and a query")
	}
	root := fs.Arg(0)
	query := strings.Join(fs.Args()[1:], " ")

	results, err := ix.Search(ctx, root, query, *limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No matching code found in project: %s\n", root)
		return nil
	}
	for _, r := range results {
		c := r.Chunk
		fmt.Printf("File: %s (lines %d-%d, distance %.4f)\n", c.Filename, c.StartLine, c.EndLine, r.Distance)
		fmt.Printf("Type: %s", c.Type)
		if c.SymbolName != "" {
			fmt.Printf("  Symbol: %s", c.SymbolName)
		}
		fmt.Printf("\n```\n%s\n```\n---\n", c.Content)
	}
	return nil
}

func runRefs(ix *indexer.Indexer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("refs needs a project root and a symbol name")
	}
	root, symbol := args[0], args[1]

	refs, err := ix.References(root, symbol)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Printf("No definitions of %q found\n", symbol)
		return nil
	}
	for defID, edges := range refs {
		fmt.Printf("Definition %s: %d reference(s)\n", defID, len(edges))
		for _, e := range edges {
			fmt.Printf("  from %s", e.SourceID)
			if line, ok := e.Metadata["line"]; ok {
				fmt.Printf(" (line %v)", line)
			}
			fmt.Printf(" [%v]\n", e.Metadata["match_type"])
		}
	}
	return nil
}

func runStats(ix *indexer.Indexer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stats needs a project root")
	}
	root := args[0]

	stats, edges, err := ix.Stats(root)
	if err != nil {
		return err
	}
	if stats.TotalChunks == 0 {
		fmt.Printf("No index found for project: %s\n", root)
		return nil
	}
	fmt.Printf("Stats for: %s\n", root)
	fmt.Printf("Total chunks: %d across %d files\n", stats.TotalChunks, stats.TotalFiles)
	fmt.Printf("Graph edges: %d\n", edges)
	fmt.Printf("Complexity: avg %.2f, max %d\n", stats.AvgComplexity, stats.MaxComplexity)
	fmt.Println("By language:")
	for language, n := range stats.ByLanguage {
		fmt.Printf("  %-12s %d\n", language, n)
	}
	fmt.Println("By type:")
	for typ, n := range stats.ByType {
		fmt.Printf("  %-24s %d\n", typ, n)
	}
	return nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
