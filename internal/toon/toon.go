// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/tagref/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeAnnotations renders anns as a single TOON table called name.
func EncodeAnnotations(name string, anns []model.Annotation) string {
	rows := make([][]string, 0, len(anns))
	for i := range anns {
		a := &anns[i]
		rows = append(rows, []string{
			a.Label,
			a.Description,
			a.Location.Path,
			strconv.Itoa(a.Location.Line),
			strconv.Itoa(a.Location.Column),
		})
	}
	return formatTabular(name, []string{"label", "description", "file", "line", "column"}, rows)
}

// EncodeCheck renders the outcome of a check. Each location of a diagnostic
// gets its own row, so a duplicate tag spans several rows.
func EncodeCheck(root string, diags []model.Diagnostic, summary string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))
	if len(diags) == 0 {
		parts = append(parts, "status: ok")
		parts = append(parts, fmt.Sprintf("summary: %s", encodeValue(summary)))
	} else {
		parts = append(parts, "status: failed")
	}

	var rows [][]string
	for i := range diags {
		d := &diags[i]
		for _, loc := range d.Locations {
			rows = append(rows, []string{
				string(d.Kind),
				d.Label,
				loc.Path,
				strconv.Itoa(loc.Line),
				strconv.Itoa(loc.Column),
			})
		}
	}
	parts = append(parts, formatTabular("diagnostics", []string{"kind", "label", "file", "line", "column"}, rows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	switch {
	case value == "":
		return `""`
	case value != strings.TrimSpace(value), strings.ContainsAny(value, "\n\r\t"):
		return quote(value)
	}
	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}
	if looksNumeric.MatchString(value) {
		return value
	}
	if needsQuoting.MatchString(value) || strings.HasPrefix(value, "-") {
		return quote(value)
	}
	return value
}

func quote(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(value) + `"`
}
