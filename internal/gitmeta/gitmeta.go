// Package gitmeta shells out to git for per-file authorship metadata.
// Every lookup degrades to empty values rather than failing the index run.
package gitmeta

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Concurrent git subprocesses are capped to keep large batches from
// exhausting process handles, which hangs on Windows.
const subprocessLimit = 10

// FileInfo holds the last-commit metadata for one file.
type FileInfo struct {
	Author       string
	LastModified string
}

// IsRepo reports whether root is inside a git work tree.
func IsRepo(ctx context.Context, root string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = root
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// Branch returns the currently checked-out branch name, or "" when root is
// not a repository or HEAD is detached.
func Branch(ctx context.Context, root string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" {
		return ""
	}
	return branch
}

// FileGitInfo returns the last-commit author and date for one file.
// Untracked files and lookup failures yield a zero FileInfo.
func FileGitInfo(ctx context.Context, path, repoRoot string) FileInfo {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "log", "-1", "--format=%an|%ai", "--", path)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		slog.Debug("gitmeta.lookup_failed", "file", path, "err", err)
		return FileInfo{}
	}

	line := strings.TrimSpace(string(out))
	if line == "" {
		return FileInfo{}
	}
	author, modified, ok := strings.Cut(line, "|")
	if !ok {
		return FileInfo{}
	}
	return FileInfo{
		Author:       strings.TrimSpace(author),
		LastModified: strings.TrimSpace(modified),
	}
}

// BatchFileInfo looks up git metadata for many files in parallel. When root is
// not a repository, every file maps to a zero FileInfo without spawning any
// per-file subprocess.
func BatchFileInfo(ctx context.Context, paths []string, repoRoot string) map[string]FileInfo {
	infos := make(map[string]FileInfo, len(paths))
	for _, p := range paths {
		infos[p] = FileInfo{}
	}

	if !IsRepo(ctx, repoRoot) {
		return infos
	}

	// Workers write into the map while it is still being read to schedule
	// jobs, so iteration runs over the paths slice, never over the map.
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(subprocessLimit)
	for _, p := range paths {
		g.Go(func() error {
			info := FileGitInfo(ctx, p, repoRoot)
			mu.Lock()
			infos[p] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return infos
}
