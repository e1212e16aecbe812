// Package model defines core data structures for tagref.
package model

import "fmt"

// Kind identifies the category of an annotation.
type Kind int

const (
	Tag Kind = iota
	Ref
	File
	Dir
)

// Kinds lists every annotation kind in canonical order.
var Kinds = [...]Kind{Tag, Ref, File, Dir}

func (k Kind) String() string {
	switch k {
	case Tag:
		return "tag"
	case Ref:
		return "ref"
	case File:
		return "file"
	case Dir:
		return "dir"
	default:
		return "unknown"
	}
}

// Sigils holds the keyword recognized for each annotation kind.
type Sigils struct {
	Tag  string
	Ref  string
	File string
	Dir  string
}

// DefaultSigils returns the sigils used when none are configured.
func DefaultSigils() Sigils {
	return Sigils{Tag: "tag", Ref: "ref", File: "file", Dir: "dir"}
}

// For returns the sigil configured for kind.
func (s Sigils) For(kind Kind) string {
	switch kind {
	case Tag:
		return s.Tag
	case Ref:
		return s.Ref
	case File:
		return s.File
	case Dir:
		return s.Dir
	default:
		return ""
	}
}

// Location points at the opening bracket of an annotation.
// Path is slash-separated and relative to the scan root; Line and Column are 1-based,
// and Column counts runes.
type Location struct {
	Path   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// Less orders locations by path, then line, then column.
func (l Location) Less(other Location) bool {
	if l.Path != other.Path {
		return l.Path < other.Path
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Annotation is a single tag, reference, file reference or directory reference.
// For File and Dir annotations Label holds the referenced path.
type Annotation struct {
	Kind  Kind
	Label string
	// Description is the rest of the line after the annotation. It is only
	// used for listings.
	Description string
	Location    Location
}

// Format renders the annotation as it would be written, followed by its location.
func (a Annotation) Format(sigils Sigils) string {
	return fmt.Sprintf("[%s:%s] @ %s", sigils.For(a.Kind), a.Label, a.Location)
}

func (a Annotation) String() string {
	return a.Format(DefaultSigils())
}

// FileAnnotations holds the annotations extracted from a single file, in source order.
type FileAnnotations struct {
	Path        string
	Annotations []Annotation
}

// DiagnosticKind classifies a violation found by the validator.
type DiagnosticKind string

const (
	DuplicateTag              DiagnosticKind = "duplicate-tag"
	UnresolvedReference       DiagnosticKind = "unresolved-reference"
	MissingFileReference      DiagnosticKind = "missing-file-reference"
	MissingDirectoryReference DiagnosticKind = "missing-directory-reference"
)

// Diagnostic is one reported violation with every location involved.
// Message is complete and may span several lines.
type Diagnostic struct {
	Kind      DiagnosticKind
	Label     string
	Message   string
	Locations []Location
}

func (d Diagnostic) String() string {
	return d.Message
}
