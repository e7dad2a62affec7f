package chunker

import (
	"os"
	"path/filepath"
	"strings"

	"codeintel/internal/lang"
	"codeintel/internal/pathutil"
)

// relatedTests probes for conventional test files matching the source file:
// each profile pattern is checked next to the file and under the project's
// tests/ and test/ directories.
func relatedTests(path string, spec *lang.LanguageSpec, projectRoot string) []string {
	if spec == nil || len(spec.RelatedTestPatterns) == 0 {
		return nil
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	dirs := []string{filepath.Dir(path)}
	if projectRoot != "" {
		dirs = append(dirs,
			filepath.Join(projectRoot, "tests"),
			filepath.Join(projectRoot, "test"),
		)
	}

	var out []string
	for _, pattern := range spec.RelatedTestPatterns {
		name := strings.ReplaceAll(pattern, "{stem}", stem)
		for _, dir := range dirs {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				out = append(out, pathutil.Normalize(candidate))
			}
		}
	}
	return sortedUnique(out)
}
