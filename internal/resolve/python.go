package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// PythonResolver resolves absolute dotted imports against the project root
// and relative imports against the source file's package.
type PythonResolver struct{}

func NewPythonResolver() *PythonResolver {
	return &PythonResolver{}
}

func (r *PythonResolver) Resolve(sourceFile, importString, projectRoot string) (string, bool) {
	if importString == "" {
		return "", false
	}

	var resolved string
	if strings.HasPrefix(importString, ".") {
		resolved = r.resolveRelative(sourceFile, importString)
	} else {
		resolved = resolveDotted(projectRoot, importString)
	}
	if resolved == "" {
		return "", false
	}
	return contained(resolved, projectRoot)
}

// resolveRelative handles ".utils", "..pkg.mod", and bare "."/"..".
// N leading dots mean "go up N-1 directories from the source file's
// directory"; the remaining dotted path resolves like an absolute import.
func (r *PythonResolver) resolveRelative(sourceFile, importString string) string {
	level := 0
	for level < len(importString) && importString[level] == '.' {
		level++
	}
	moduleName := importString[level:]

	baseDir := filepath.Dir(sourceFile)
	for i := 0; i < level-1; i++ {
		baseDir = filepath.Dir(baseDir)
	}

	if moduleName == "" {
		// "from . import x" targets the package itself.
		init := filepath.Join(baseDir, "__init__.py")
		if isFile(init) {
			return init
		}
		return ""
	}
	return resolveDotted(baseDir, moduleName)
}

// resolveDotted walks "a.b.c" as nested packages from base, preferring
// c.py over c/__init__.py at the final segment.
func resolveDotted(base, dotted string) string {
	parts := strings.Split(dotted, ".")
	current := base
	for i, part := range parts {
		last := i == len(parts)-1
		modPath := filepath.Join(current, part+".py")
		pkgPath := filepath.Join(current, part)

		if last {
			if isFile(modPath) {
				return modPath
			}
			init := filepath.Join(pkgPath, "__init__.py")
			if isFile(init) {
				return init
			}
			return ""
		}
		if info, err := os.Stat(pkgPath); err != nil || !info.IsDir() {
			return ""
		}
		current = pkgPath
	}
	return ""
}
