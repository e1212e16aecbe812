// Package index aggregates per-file annotations into a single cross-tree index.
package index

import (
	"sort"

	"github.com/phobologic/tagref/internal/model"
)

// Index is the aggregate of every annotation found in a scan.
// All slices are in discovery order: files by path, then source order within a file.
type Index struct {
	// Tags maps each label to every location that defines it.
	Tags map[string][]model.Location
	// TagOrder lists the labels of Tags in first-seen order.
	TagOrder []string

	TagList []model.Annotation
	Refs    []model.Annotation
	Files   []model.Annotation
	Dirs    []model.Annotation

	FilesScanned int
}

// Build reduces per-file results into an Index. files may arrive in any order;
// they are reduced in path order so the result does not depend on how they were
// produced.
func Build(files []model.FileAnnotations) *Index {
	ordered := make([]*model.FileAnnotations, len(files))
	for i := range files {
		ordered[i] = &files[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Path < ordered[j].Path
	})

	idx := &Index{
		Tags:         make(map[string][]model.Location),
		FilesScanned: len(files),
	}
	for _, fa := range ordered {
		for j := range fa.Annotations {
			a := &fa.Annotations[j]
			switch a.Kind {
			case model.Tag:
				if _, seen := idx.Tags[a.Label]; !seen {
					idx.TagOrder = append(idx.TagOrder, a.Label)
				}
				idx.Tags[a.Label] = append(idx.Tags[a.Label], a.Location)
				idx.TagList = append(idx.TagList, *a)
			case model.Ref:
				idx.Refs = append(idx.Refs, *a)
			case model.File:
				idx.Files = append(idx.Files, *a)
			case model.Dir:
				idx.Dirs = append(idx.Dirs, *a)
			}
		}
	}
	return idx
}

// Unique returns the labels defined exactly once, with their location.
func (idx *Index) Unique() map[string]model.Location {
	unique := make(map[string]model.Location, len(idx.Tags))
	for label, locs := range idx.Tags {
		if len(locs) == 1 {
			unique[label] = locs[0]
		}
	}
	return unique
}

// Duplicates returns the labels defined more than once, in first-seen order.
func (idx *Index) Duplicates() []string {
	var dups []string
	for _, label := range idx.TagOrder {
		if len(idx.Tags[label]) > 1 {
			dups = append(dups, label)
		}
	}
	return dups
}

// Referenced returns the set of labels used by at least one reference.
func (idx *Index) Referenced() map[string]struct{} {
	refs := make(map[string]struct{}, len(idx.Refs))
	for i := range idx.Refs {
		refs[idx.Refs[i].Label] = struct{}{}
	}
	return refs
}
