package scan

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIgnorePatterns skips dependency, build and VCS directories.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"vendor",
	"dist",
	"build",
	".next",
	".nuxt",
	"out",
	"coverage",
	"storybook-static",
	".cache",
}

// DefaultExclude skips tests and stories, which reference hooks rather than
// define them.
var DefaultExclude = []string{
	"**/*.test.*",
	"**/*.spec.*",
	"**/*.stories.*",
	"**/__tests__/**",
	"**/__mocks__/**",
}

// Filter decides which repo-relative paths are scanned.
//
// Ignore patterns follow the simple rules used for directory pruning: a bare
// name matches any path segment prefix, a glob is matched with path.Match.
// Include and exclude are doublestar globs ("src/**/*.tsx").
type Filter struct {
	ignore  []string
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles the include and exclude globs.
func NewFilter(ignore, include, exclude []string) (*Filter, error) {
	f := &Filter{ignore: ignore}
	var err error
	if f.include, err = compileGlobs(include); err != nil {
		return nil, err
	}
	if f.exclude, err = compileGlobs(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

// DefaultFilter ignores the default directories and excludes tests.
func DefaultFilter() *Filter {
	f, err := NewFilter(DefaultIgnorePatterns, nil, DefaultExclude)
	if err != nil {
		panic(err)
	}
	return f
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, raw := range patterns {
		p := normalizePattern(raw)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", raw, err)
		}
		out = append(out, g)
		// "**/x" should also match "x" at the root.
		if rest, ok := strings.CutPrefix(p, "**/"); ok && rest != "" {
			g, err := glob.Compile(rest, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob %q: %w", raw, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// Match reports whether a file should be scanned.
func (f *Filter) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if f.Ignored(rel) {
		return false
	}
	if len(f.include) > 0 && !anyMatch(f.include, rel) {
		return false
	}
	return !anyMatch(f.exclude, rel)
}

// Ignored reports whether rel or one of its parent directories is ignored.
func (f *Filter) Ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	dir := rel
	for dir != "." && dir != "/" && dir != "" {
		if isIgnoredRel(dir, path.Base(dir), f.ignore) {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}

func anyMatch(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func normalizePattern(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	p = strings.TrimSuffix(p, "\\")
	return filepath.ToSlash(p)
}

// isIgnoredRel reports whether a relative path should be ignored.
func isIgnoredRel(rel, name string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, raw := range patterns {
		p := normalizePattern(raw)
		if p == "" {
			continue
		}
		// Glob pattern
		if strings.ContainsAny(p, "*?[]") {
			if ok, _ := path.Match(p, rel); ok {
				return true
			}
			// Handle directory globs like "vendor/*"
			if strings.HasSuffix(p, "/*") {
				prefix := strings.TrimSuffix(p, "/*")
				if strings.HasPrefix(rel, prefix+"/") {
					return true
				}
			}
			continue
		}
		// Simple dir/file name
		if name == p {
			return true
		}
		// Prefix match for nested paths
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
