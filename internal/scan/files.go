package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// File is one input of a scan. Err carries a read failure so that it is
// reported with the file instead of aborting the run.
type File struct {
	// Path is repo-relative with forward slashes.
	Path    string
	Content []byte
	Err     error
}

// WalkDir collects every file under root that passes filter and that
// accept (usually Factory.HasParser) recognizes. Paths come back sorted.
func WalkDir(root string, filter *Filter, accept func(path string) bool) ([]File, error) {
	if filter == nil {
		filter = DefaultFilter()
	}
	var rels []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && filter.Ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if filter.Match(rel) && (accept == nil || accept(rel)) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return ReadFiles(root, rels), nil
}

// ReadFiles loads the given repo-relative paths under root. Unreadable
// files are returned with Err set.
func ReadFiles(root string, rels []string) []File {
	sorted := append([]string(nil), rels...)
	sort.Strings(sorted)
	files := make([]File, 0, len(sorted))
	for _, rel := range sorted {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			err = fmt.Errorf("read %s: %w", rel, err)
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Content: content, Err: err})
	}
	return files
}

// SelectPaths keeps the paths that pass filter and accept.
func SelectPaths(paths []string, filter *Filter, accept func(string) bool) []string {
	if filter == nil {
		filter = DefaultFilter()
	}
	var out []string
	for _, p := range paths {
		p = filepath.ToSlash(p)
		if filter.Match(p) && (accept == nil || accept(p)) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
