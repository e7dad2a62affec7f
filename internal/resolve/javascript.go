package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// jsExtensions is the fixed probe order for extensionless imports.
var jsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json"}

var (
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// JSResolver resolves JavaScript/TypeScript imports: relative specifiers with
// extension inference and index fallback, plus tsconfig/jsconfig path
// aliases. Bare module specifiers are external packages and stay unresolved.
type JSResolver struct {
	mu    sync.Mutex
	cache map[string]*tsConfig // project root -> parsed config
}

type tsConfig struct {
	paths   map[string][]string
	baseURL string
}

func NewJSResolver() *JSResolver {
	return &JSResolver{cache: make(map[string]*tsConfig)}
}

func (r *JSResolver) Resolve(sourceFile, importString, projectRoot string) (string, bool) {
	if importString == "" {
		return "", false
	}

	if strings.HasPrefix(importString, ".") {
		target := filepath.Join(filepath.Dir(sourceFile), importString)
		if resolved := probe(target); resolved != "" {
			return contained(resolved, projectRoot)
		}
		return "", false
	}

	if resolved := r.resolveAlias(projectRoot, importString); resolved != "" {
		return contained(resolved, projectRoot)
	}
	return "", false
}

// probe tries the path as-is, with each inferred extension, and finally as a
// directory with an index file.
func probe(target string) string {
	if isFile(target) {
		return target
	}
	for _, ext := range jsExtensions {
		if p := target + ext; isFile(p) {
			return p
		}
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		for _, ext := range jsExtensions {
			if p := filepath.Join(target, "index"+ext); isFile(p) {
				return p
			}
		}
	}
	return ""
}

// resolveAlias matches the import against tsconfig path mappings: exact
// patterns first, then single-wildcard-suffix patterns, each candidate
// re-run through probe relative to baseUrl.
func (r *JSResolver) resolveAlias(projectRoot, importString string) string {
	cfg := r.config(projectRoot)
	if cfg == nil || len(cfg.paths) == 0 {
		return ""
	}

	for pattern, targets := range cfg.paths {
		if pattern == importString {
			for _, target := range targets {
				if p := probe(filepath.Join(projectRoot, cfg.baseURL, target)); p != "" {
					return p
				}
			}
		}
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if !strings.HasPrefix(importString, prefix) {
				continue
			}
			suffix := importString[len(prefix):]
			for _, target := range targets {
				if !strings.HasSuffix(target, "*") {
					continue
				}
				candidate := strings.TrimSuffix(target, "*") + suffix
				if p := probe(filepath.Join(projectRoot, cfg.baseURL, candidate)); p != "" {
					return p
				}
			}
		}
	}
	return ""
}

// config loads and caches the project's tsconfig.json/jsconfig.json compiler
// options. Config files commonly carry comments, which are stripped before
// JSON decoding.
func (r *JSResolver) config(projectRoot string) *tsConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.cache[projectRoot]; ok {
		return cfg
	}

	cfg := &tsConfig{baseURL: "."}
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		raw, err := os.ReadFile(filepath.Join(projectRoot, name))
		if err != nil {
			continue
		}
		cleaned := blockCommentRe.ReplaceAll(lineCommentRe.ReplaceAll(raw, nil), nil)

		var parsed struct {
			CompilerOptions struct {
				Paths   map[string][]string `json:"paths"`
				BaseURL string              `json:"baseUrl"`
			} `json:"compilerOptions"`
		}
		if err := json.Unmarshal(cleaned, &parsed); err != nil {
			continue
		}
		cfg.paths = parsed.CompilerOptions.Paths
		if parsed.CompilerOptions.BaseURL != "" {
			cfg.baseURL = parsed.CompilerOptions.BaseURL
		}
		break
	}
	r.cache[projectRoot] = cfg
	return cfg
}
