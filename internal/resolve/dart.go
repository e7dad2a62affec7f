package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DartResolver resolves Dart imports: package: URIs map through the
// project's pubspec name into lib/, relative URIs resolve against the source
// file's directory, and dart: URIs are always external.
type DartResolver struct {
	mu    sync.Mutex
	cache map[string]string // project root -> package name ("" = no pubspec)
}

func NewDartResolver() *DartResolver {
	return &DartResolver{cache: make(map[string]string)}
}

func (r *DartResolver) Resolve(sourceFile, importString, projectRoot string) (string, bool) {
	switch {
	case importString == "" || strings.HasPrefix(importString, "dart:"):
		return "", false
	case strings.HasPrefix(importString, "package:"):
		return r.resolvePackage(importString, projectRoot)
	default:
		target := filepath.Join(filepath.Dir(sourceFile), importString)
		if !isFile(target) {
			return "", false
		}
		return contained(target, projectRoot)
	}
}

func (r *DartResolver) resolvePackage(importString, projectRoot string) (string, bool) {
	name := r.packageName(projectRoot)
	if name == "" {
		return "", false
	}
	prefix := "package:" + name + "/"
	if !strings.HasPrefix(importString, prefix) {
		// A different package; external.
		return "", false
	}
	target := filepath.Join(projectRoot, "lib", importString[len(prefix):])
	if !isFile(target) {
		return "", false
	}
	return contained(target, projectRoot)
}

// packageName reads and caches the package name from pubspec.yaml.
func (r *DartResolver) packageName(projectRoot string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.cache[projectRoot]; ok {
		return name
	}

	name := ""
	if raw, err := os.ReadFile(filepath.Join(projectRoot, "pubspec.yaml")); err == nil {
		var pubspec struct {
			Name string `yaml:"name"`
		}
		if err := yaml.Unmarshal(raw, &pubspec); err == nil {
			name = pubspec.Name
		}
	}
	r.cache[projectRoot] = name
	return name
}
