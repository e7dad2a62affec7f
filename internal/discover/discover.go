// Package discover walks a project tree and selects the source files worth
// indexing, pruning dependency and build directories up front.
package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"codeintel/internal/lang"
)

// ignoreDirs are directory names skipped during discovery.
var ignoreDirs = map[string]bool{
	"node_modules": true, "venv": true, ".venv": true, "env": true,
	".env": true, "__pycache__": true, ".git": true, "build": true,
	"dist": true, ".idea": true, ".vscode": true, "coverage": true,
	".pytest_cache": true, "logs": true, ".dart_tool": true,
	"ephemeral": true, "target": true, "vendor": true,
}

// ignoreSuffixes are file suffixes never worth parsing.
var ignoreSuffixes = map[string]bool{
	".tmp": true, "~": true, ".pyc": true, ".pyo": true,
	".o": true, ".a": true, ".so": true, ".dll": true, ".class": true,
}

// extraExtensions are files without a grammar that still produce chunks
// through a dedicated scanner.
var extraExtensions = map[string]bool{
	".md":    true,
	".rules": true,
}

// FileInfo is one discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to project root
	Language lang.Language // detected language, "" for scanner-only files
}

// Options configures file discovery.
type Options struct {
	// IncludeGlobs keeps only matching files when non-empty.
	IncludeGlobs []string
	// ExcludeGlobs drops matching files. Exclusion wins over inclusion.
	ExcludeGlobs []string
	// IgnoreFile points at a newline-separated pattern file; defaults to
	// <root>/.codeintelignore when empty.
	IgnoreFile string
}

// Discover walks a project and returns all indexable source files.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}

	ignorePath := opts.IgnoreFile
	if ignorePath == "" {
		ignorePath = filepath.Join(root, ".codeintelignore")
	}
	extraIgnore, _ := loadIgnoreFile(ignorePath)

	var files []FileInfo

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if path != root && shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}
		for suffix := range ignoreSuffixes {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}

		relSlash := filepath.ToSlash(rel)
		if matchesAny(opts.ExcludeGlobs, name, relSlash) {
			return nil
		}
		if len(opts.IncludeGlobs) > 0 && !matchesAny(opts.IncludeGlobs, name, relSlash) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		language, parseable := lang.LanguageForExtension(ext)
		if !parseable && !extraExtensions[ext] {
			return nil
		}
		files = append(files, FileInfo{
			Path:     path,
			RelPath:  relSlash,
			Language: language,
		})
		return nil
	})

	return files, err
}

// shouldSkipDir prunes dependency directories, hidden directories, and any
// directory matching the project's ignore patterns.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if ignoreDirs[name] || strings.HasPrefix(name, ".") {
		return true
	}
	return matchesAny(extraIgnore, name, filepath.ToSlash(rel))
}

func matchesAny(patterns []string, name, rel string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
