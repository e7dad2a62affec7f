// Package watcher polls project roots for file changes and triggers
// incremental re-indexing. Polling (mtime+size snapshots) is used instead of
// OS notification APIs so behavior is identical across platforms and network
// filesystems.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"codeintel/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

type rootState struct {
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// IndexFunc is the callback invoked when a watched root has changed.
type IndexFunc func(ctx context.Context, root string) error

// Watcher polls a set of project roots and calls indexFn on change.
type Watcher struct {
	indexFn IndexFunc
	roots   map[string]*rootState
}

// New creates a Watcher over the given project roots.
func New(indexFn IndexFunc, roots []string) *Watcher {
	states := make(map[string]*rootState, len(roots))
	for _, r := range roots {
		states[r] = &rootState{}
	}
	return &Watcher{indexFn: indexFn, roots: states}
}

// Run blocks until ctx is cancelled. It ticks at the base interval and polls
// each root only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for root, state := range w.roots {
				if now.Before(state.nextPoll) {
					continue
				}
				w.poll(ctx, root, state)
			}
		}
	}
}

// poll compares the current file tree snapshot with the previous one. The
// first poll only captures a baseline; later polls trigger indexFn when any
// file was added, removed, or modified.
func (w *Watcher) poll(ctx context.Context, root string, state *rootState) {
	if _, err := os.Stat(root); err != nil {
		slog.Warn("watcher.root_gone", "root", root)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(ctx, root)
	if err != nil {
		slog.Warn("watcher.snapshot_failed", "root", root, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}

	interval := pollInterval(len(snap))

	if state.snapshot == nil {
		slog.Debug("watcher.baseline", "root", root, "files", len(snap))
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(state.snapshot, snap) {
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "root", root, "files", len(snap))
	if err := w.indexFn(ctx, root); err != nil {
		slog.Warn("watcher.index_failed", "root", root, "err", err)
		// Snapshot stays unchanged so the next cycle retries.
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.snapshot = snap
	state.interval = pollInterval(len(snap))
	state.nextPoll = time.Now().Add(state.interval)
}

// captureSnapshot records mtime and size for every indexable file under root.
func captureSnapshot(ctx context.Context, root string) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, root, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return snap, nil
}

func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, as := range a {
		bs, ok := b[path]
		if !ok {
			return false
		}
		if !as.modTime.Equal(bs.modTime) || as.size != bs.size {
			return false
		}
	}
	return true
}

// pollInterval scales with tree size: 1s base plus 1s per 500 files, capped
// at 60s, so huge projects are not re-walked every second.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
