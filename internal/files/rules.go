package files

import (
	"path/filepath"
	"strings"

	"github.com/billie-coop/sift/internal/analyzer"
)

var ignoredDirs = map[string]struct{}{
	"node_modules":  {},
	".git":          {},
	".svn":          {},
	".hg":           {},
	"vendor":        {},
	"build":         {},
	"dist":          {},
	"out":           {},
	".next":         {},
	"target":        {},
	"__pycache__":   {},
	".pytest_cache": {},
	".venv":         {},
	".vscode":       {},
	".idea":         {},
	"coverage":      {},
}

// ShouldIgnore reports whether a relative path sits in a build, VCS or
// editor directory, or is a hidden file.
func ShouldIgnore(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, component := range strings.Split(clean, "/") {
		if _, ok := ignoredDirs[component]; ok {
			return true
		}
	}
	base := filepath.Base(clean)
	return strings.HasPrefix(base, ".") && base != "."
}

// IsSource reports whether a path has an extension one of the analyzers
// understands.
func IsSource(path string) bool {
	_, ok := analyzer.KindForPath(path)
	return ok
}

// Include is the filter Pack applies to every regular file.
func Include(path string) bool {
	return !ShouldIgnore(path) && IsSource(path)
}
