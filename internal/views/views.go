// Package views implements the read-only queries over an index.
package views

import (
	"sort"
	"strings"

	"github.com/phobologic/tagref/internal/index"
	"github.com/phobologic/tagref/internal/model"
)

// Tags returns every tag, in discovery order. Duplicates are kept.
func Tags(idx *index.Index) []model.Annotation {
	return clone(idx.TagList)
}

// Refs returns every reference, in discovery order.
func Refs(idx *index.Index) []model.Annotation {
	return clone(idx.Refs)
}

// Files returns every file reference, in discovery order.
func Files(idx *index.Index) []model.Annotation {
	return clone(idx.Files)
}

// Dirs returns every directory reference, in discovery order.
func Dirs(idx *index.Index) []model.Annotation {
	return clone(idx.Dirs)
}

// Unused returns the uniquely defined tags that no reference points to.
// A duplicated label is never unused; it is reported by the validator instead.
func Unused(idx *index.Index) []model.Annotation {
	referenced := idx.Referenced()

	var out []model.Annotation
	for i := range idx.TagList {
		tag := &idx.TagList[i]
		if len(idx.Tags[tag.Label]) != 1 {
			continue
		}
		if _, used := referenced[tag.Label]; used {
			continue
		}
		out = append(out, *tag)
	}
	return out
}

// Filter returns the annotations whose label contains substr, compared
// case-insensitively. An empty substr matches everything.
func Filter(anns []model.Annotation, substr string) []model.Annotation {
	if substr == "" {
		return anns
	}
	lower := strings.ToLower(substr)

	var out []model.Annotation
	for i := range anns {
		if strings.Contains(strings.ToLower(anns[i].Label), lower) {
			out = append(out, anns[i])
		}
	}
	return out
}

// Sorted returns a copy of anns ordered by label, then location.
func Sorted(anns []model.Annotation) []model.Annotation {
	out := clone(anns)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Location.Less(out[j].Location)
	})
	return out
}

func clone(anns []model.Annotation) []model.Annotation {
	if len(anns) == 0 {
		return nil
	}
	return append([]model.Annotation(nil), anns...)
}
