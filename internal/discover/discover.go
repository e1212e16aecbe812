// Package discover finds the files eligible for scanning under one or more root paths.
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// FileEntry represents a discovered file.
type FileEntry struct {
	Path     string // Relative to the scan root, slash-separated
	AbsPath  string
	realPath string
}

// Warning is a non-fatal problem met while walking.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// skipDirs are version-control metadata directories, never entered whatever
// the ignore rules say.
var skipDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
}

type walker struct {
	ctx      context.Context
	root     string
	rules    map[string]*RuleSet
	files    []FileEntry
	warnings []Warning
}

// Files discovers the regular files under each of paths, honoring the .gitignore
// and .ignore files found between root and every file. root is the scan root:
// returned paths are relative to it. Relative entries in paths are resolved
// against root; an empty paths scans root itself. Each real file is returned
// at most once, and the result is sorted by Path.
func Files(ctx context.Context, root string, paths []string) ([]FileEntry, []Warning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving root: %w", err)
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	w := &walker{
		ctx:   ctx,
		root:  absRoot,
		rules: make(map[string]*RuleSet),
	}

	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(absRoot, p)
		}
		abs = filepath.Clean(abs)

		info, err := os.Stat(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("root path: %w", err)
		}
		realPath, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("root path: %w", err)
		}

		sets := w.ancestorRules(abs)
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				w.files = append(w.files, FileEntry{Path: w.rel(abs), AbsPath: abs, realPath: realPath})
			}
			continue
		}
		if err := w.walkDir(abs, realPath, sets, []string{realPath}); err != nil {
			return nil, nil, err
		}
	}

	return dedupe(w.files), w.warnings, nil
}

// ancestorRules loads the rule sets of the directories from the scan root down
// to, but not including, path. Paths outside the scan root have no ancestors.
func (w *walker) ancestorRules(path string) []*RuleSet {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	var sets []*RuleSet
	dir := w.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if rs := w.rulesFor(dir); rs != nil {
			sets = append(sets, rs)
		}
		dir = filepath.Join(dir, part)
	}
	return sets
}

func (w *walker) rulesFor(dir string) *RuleSet {
	if rs, ok := w.rules[dir]; ok {
		return rs
	}
	rs, err := loadRules(dir, w.rel(dir))
	if err != nil {
		w.warn(dir, err)
	}
	w.rules[dir] = rs
	return rs
}

func (w *walker) walkDir(dir, realDir string, sets []*RuleSet, ancestors []string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.warn(dir, err)
		return nil
	}

	if rs := w.rulesFor(dir); rs != nil {
		sets = append(sets[:len(sets):len(sets)], rs)
	}

	for _, e := range entries {
		name := e.Name()
		abs := filepath.Join(dir, name)
		rel := w.rel(abs)
		entryReal := filepath.Join(realDir, name)
		isDir := e.IsDir()

		if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(abs)
			if err != nil {
				w.warn(abs, err)
				continue
			}
			if !info.IsDir() && !info.Mode().IsRegular() {
				continue
			}
			isDir = info.IsDir()
			if entryReal, err = filepath.EvalSymlinks(abs); err != nil {
				w.warn(abs, err)
				continue
			}
		} else if !isDir && !e.Type().IsRegular() {
			continue
		}

		if isDir {
			if _, skip := skipDirs[name]; skip {
				continue
			}
			if Match(rel, true, sets) && !mayReinclude(rel, sets) {
				continue
			}
			if slices.Contains(ancestors, entryReal) {
				continue // symlink back to an ancestor
			}
			if err := w.walkDir(abs, entryReal, sets, append(ancestors[:len(ancestors):len(ancestors)], entryReal)); err != nil {
				return err
			}
			continue
		}

		if Match(rel, false, sets) {
			continue
		}
		w.files = append(w.files, FileEntry{Path: rel, AbsPath: abs, realPath: entryReal})
	}
	return nil
}

func (w *walker) rel(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (w *walker) warn(path string, err error) {
	display := w.rel(path)
	if display == "" {
		display = "."
	}
	w.warnings = append(w.warnings, Warning{Path: display, Err: err})
}

// dedupe sorts files by path and keeps the first entry for each path and for
// each underlying real file.
func dedupe(files []FileEntry) []FileEntry {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	seenPath := make(map[string]struct{}, len(files))
	seenReal := make(map[string]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		if _, ok := seenPath[f.Path]; ok {
			continue
		}
		if _, ok := seenReal[f.realPath]; ok {
			continue
		}
		seenPath[f.Path] = struct{}{}
		seenReal[f.realPath] = struct{}{}
		out = append(out, f)
	}
	return out
}
