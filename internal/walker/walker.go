// Package walker implements the static, file-tree scanners that
// internal/parser uses to derive a project's tools and MCP servers when no
// manifest is present. There is no Python AST library in reach here, so
// each scanner gets its own small line-oriented visitor
// over the relevant syntactic shapes (decorated functions, class bases,
// call-assignments) rather than a generic parse-and-walk-any-node scheme.
package walker

import (
	"os"
	"path/filepath"
	"strconv"
)

// SourceWalker yields file paths under a set of roots, filtered by
// extension. A nil/empty extension set matches every file.
type SourceWalker struct {
	Extensions map[string]struct{}
}

// NewSourceWalker builds a SourceWalker restricted to the given
// extensions (each including its leading dot, e.g. ".py").
func NewSourceWalker(extensions ...string) SourceWalker {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[ext] = struct{}{}
	}
	return SourceWalker{Extensions: set}
}

// WalkFiles returns every file under paths (files are yielded directly;
// directories are walked recursively) whose extension passes the filter.
func (w SourceWalker) WalkFiles(paths []string) ([]string, error) {
	var files []string
	for _, raw := range paths {
		info, err := os.Stat(raw)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err := filepath.Walk(raw, func(path string, fi os.FileInfo, walkErr error) error {
				if walkErr != nil || fi.IsDir() {
					return nil
				}
				if w.shouldInclude(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		if w.shouldInclude(raw) {
			files = append(files, raw)
		}
	}
	return files, nil
}

func (w SourceWalker) shouldInclude(path string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	_, ok := w.Extensions[filepath.Ext(path)]
	return ok
}

// FormatLocation renders a "<path>:<line>" location string, or just the
// path when no line number is known.
func FormatLocation(path string, line int) string {
	if line > 0 {
		return path + ":" + strconv.Itoa(line)
	}
	return path
}
