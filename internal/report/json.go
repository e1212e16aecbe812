package report

import (
	"encoding/json"
	"io"

	"github.com/phobologic/tagref/internal/model"
)

// LocationJSON is a location in JSON output.
type LocationJSON struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// DiagnosticJSON is a diagnostic in JSON output.
type DiagnosticJSON struct {
	Kind      string         `json:"kind"`
	Label     string         `json:"label"`
	Message   string         `json:"message"`
	Locations []LocationJSON `json:"locations"`
}

// DiagnosticsOutput is the root of the JSON written by check --format json.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Summary     string           `json:"summary,omitempty"`
}

// BuildDiagnosticsOutput converts diagnostics to their JSON shape. summary is
// only set when there are no diagnostics.
func BuildDiagnosticsOutput(diags []model.Diagnostic, summary string) DiagnosticsOutput {
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, len(diags)),
		Count:       len(diags),
	}
	for i := range diags {
		d := &diags[i]
		dj := DiagnosticJSON{
			Kind:      string(d.Kind),
			Label:     d.Label,
			Message:   d.Message,
			Locations: make([]LocationJSON, len(d.Locations)),
		}
		for j, loc := range d.Locations {
			dj.Locations[j] = LocationJSON{File: loc.Path, Line: loc.Line, Column: loc.Column}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	if len(diags) == 0 {
		out.Summary = summary
	}
	return out
}

// WriteJSON writes diagnostics as indented JSON.
func WriteJSON(w io.Writer, diags []model.Diagnostic, summary string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(diags, summary))
}

// AnnotationJSON is an annotation in JSON output.
type AnnotationJSON struct {
	Kind        string       `json:"kind"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	Location    LocationJSON `json:"location"`
}

// AnnotationsOutput is the root of the JSON written by the list commands.
type AnnotationsOutput struct {
	Annotations []AnnotationJSON `json:"annotations"`
	Count       int              `json:"count"`
}

// WriteAnnotationsJSON writes anns as indented JSON.
func WriteAnnotationsJSON(w io.Writer, anns []model.Annotation) error {
	out := AnnotationsOutput{
		Annotations: make([]AnnotationJSON, 0, len(anns)),
		Count:       len(anns),
	}
	for i := range anns {
		a := &anns[i]
		out.Annotations = append(out.Annotations, AnnotationJSON{
			Kind:        a.Kind.String(),
			Label:       a.Label,
			Description: a.Description,
			Location:    LocationJSON{File: a.Location.Path, Line: a.Location.Line, Column: a.Location.Column},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
