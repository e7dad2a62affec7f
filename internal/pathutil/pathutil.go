// Package pathutil canonicalizes filesystem paths so that chunk identity,
// project partitioning, and graph edge endpoints stay stable across
// platforms and across repeated indexing runs.
package pathutil

import (
	"encoding/hex"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zeebo/xxh3"
)

// Normalize returns a canonical absolute slash-separated path.
// On Windows the drive letter is lowercased so that hashes and store lookups
// never diverge between "C:/..." and "c:/...".
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	s := filepath.ToSlash(abs)
	if runtime.GOOS == "windows" && len(s) > 1 && s[1] == ':' {
		s = strings.ToLower(s[:1]) + s[1:]
	}
	return s
}

// ProjectID derives the stable project partition key from a project root.
// Identical roots (after normalization) always map to the same id.
func ProjectID(root string) string {
	h := xxh3.Hash128([]byte(Normalize(root))).Bytes()
	return hex.EncodeToString(h[:])
}

// Within reports whether path is contained in root. Both arguments are
// normalized first; the check is a path-segment prefix test, so
// "/project-evil" is not within "/project".
func Within(path, root string) bool {
	p := Normalize(path)
	r := strings.TrimSuffix(Normalize(root), "/")
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+"/")
}
