// Package check validates an index and reports every violation it finds.
package check

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/tagref/internal/index"
	"github.com/phobologic/tagref/internal/model"
)

// ErrEmptyPath is reported for a file or directory reference without a path.
var ErrEmptyPath = errors.New("empty path")

// StatFunc reports file information for path, like os.Stat.
type StatFunc func(path string) (fs.FileInfo, error)

// Options configures a validation run.
type Options struct {
	// Root is the directory file and directory references are resolved against.
	Root string
	// Sigils are used to render annotations in messages. Zero means the defaults.
	Sigils model.Sigils
	// Stat defaults to os.Stat.
	Stat StatFunc
}

// Run validates idx and returns every diagnostic: duplicate tags first, then
// unresolved references, missing file references and missing directory
// references, each group in discovery order. It never stops at the first problem.
func Run(idx *index.Index, opts Options) []model.Diagnostic {
	if opts.Sigils == (model.Sigils{}) {
		opts.Sigils = model.DefaultSigils()
	}
	if opts.Stat == nil {
		opts.Stat = os.Stat
	}

	var diags []model.Diagnostic
	diags = append(diags, duplicates(idx, opts.Sigils)...)
	diags = append(diags, unresolved(idx, opts.Sigils)...)
	diags = append(diags, paths(idx.Files, opts, false)...)
	diags = append(diags, paths(idx.Dirs, opts, true)...)
	return diags
}

func duplicates(idx *index.Index, sigils model.Sigils) []model.Diagnostic {
	var diags []model.Diagnostic
	for _, label := range idx.Duplicates() {
		locs := idx.Tags[label]

		var b strings.Builder
		fmt.Fprintf(&b, "Duplicate tags found for label `%s`:", label)
		for _, loc := range locs {
			tag := model.Annotation{Kind: model.Tag, Label: label, Location: loc}
			b.WriteString("\n  ")
			b.WriteString(tag.Format(sigils))
		}

		diags = append(diags, model.Diagnostic{
			Kind:      model.DuplicateTag,
			Label:     label,
			Message:   b.String(),
			Locations: append([]model.Location(nil), locs...),
		})
	}
	return diags
}

// unresolved reports references whose label has no uniquely defined tag. A
// reference to a duplicated label is reported here too.
func unresolved(idx *index.Index, sigils model.Sigils) []model.Diagnostic {
	unique := idx.Unique()

	var diags []model.Diagnostic
	for i := range idx.Refs {
		ref := &idx.Refs[i]
		if _, ok := unique[ref.Label]; ok {
			continue
		}
		diags = append(diags, model.Diagnostic{
			Kind:      model.UnresolvedReference,
			Label:     ref.Label,
			Message:   fmt.Sprintf("No tag found for %s.", ref.Format(sigils)),
			Locations: []model.Location{ref.Location},
		})
	}
	return diags
}

func paths(anns []model.Annotation, opts Options, wantDir bool) []model.Diagnostic {
	kind, noun := model.MissingFileReference, "file"
	if wantDir {
		kind, noun = model.MissingDirectoryReference, "directory"
	}

	var diags []model.Diagnostic
	for i := range anns {
		a := &anns[i]

		var msg string
		var info fs.FileInfo
		err := ErrEmptyPath
		if a.Label != "" {
			info, err = opts.Stat(Resolve(opts.Root, a.Label))
		}
		switch {
		case err != nil:
			msg = fmt.Sprintf("Error when validating %s: %v", a.Format(opts.Sigils), statError(err))
		case wantDir && !info.IsDir(), !wantDir && !info.Mode().IsRegular():
			msg = fmt.Sprintf("%s does not point to a %s.", a.Format(opts.Sigils), noun)
		default:
			continue
		}

		diags = append(diags, model.Diagnostic{
			Kind:      kind,
			Label:     a.Label,
			Message:   msg,
			Locations: []model.Location{a.Location},
		})
	}
	return diags
}

// Resolve returns the file system path a file or directory reference points
// to. Relative references are relative to root.
func Resolve(root, label string) string {
	p := filepath.FromSlash(label)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// statError drops the path from a *fs.PathError so messages stay the same
// whichever directory the scan runs from.
func statError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
