// Package report renders diagnostics, summaries and listings for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/phobologic/tagref/internal/index"
	"github.com/phobologic/tagref/internal/model"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

const (
	minWidth       = 4
	maxDescWidth   = 45
	columnGap      = "  "
	truncateSuffix = "..."
)

// Options configures a Printer.
type Options struct {
	Color bool
	// Width is the line width listings are fitted to. Zero means DefaultWidth.
	Width int
}

// Printer writes human-readable output.
type Printer struct {
	w     io.Writer
	width int
	bad   *color.Color
	good  *color.Color
}

// New returns a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	p := &Printer{
		w:     w,
		width: max(opts.Width, minWidth),
		bad:   color.New(color.FgRed),
		good:  color.New(color.FgGreen),
	}
	if opts.Width == 0 {
		p.width = DefaultWidth
	}
	for _, c := range []*color.Color{p.bad, p.good} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Diagnostics writes each diagnostic message, in order.
func (p *Printer) Diagnostics(diags []model.Diagnostic) error {
	for i := range diags {
		if _, err := p.bad.Fprintln(p.w, diags[i].Message); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes the line printed after a successful check.
func (p *Printer) Summary(idx *index.Index) error {
	_, err := p.good.Fprintln(p.w, SummaryLine(idx))
	return err
}

// SummaryLine describes what a check validated.
func SummaryLine(idx *index.Index) string {
	return fmt.Sprintf("%s, %s, %s and %s validated in %s.",
		count(len(idx.Tags), "tag"),
		count(len(idx.Refs), "reference"),
		count(len(idx.Files), "file reference"),
		count(len(idx.Dirs), "directory reference"),
		count(idx.FilesScanned, "file"),
	)
}

func count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Listing writes anns as aligned label, description and location columns.
// The description column is dropped when no annotation has one, and truncated
// to fit the printer's width otherwise.
func (p *Printer) Listing(anns []model.Annotation) error {
	if len(anns) == 0 {
		return nil
	}

	locs := make([]string, len(anns))
	labelWidth, descWidth, locWidth := 0, 0, 0
	for i := range anns {
		locs[i] = anns[i].Location.String()
		labelWidth = max(labelWidth, runewidth.StringWidth(anns[i].Label))
		descWidth = max(descWidth, runewidth.StringWidth(anns[i].Description))
		locWidth = max(locWidth, runewidth.StringWidth(locs[i]))
	}

	room := p.width - labelWidth - locWidth - 2*len(columnGap)
	descWidth = min(descWidth, maxDescWidth, room)

	var b strings.Builder
	for i := range anns {
		b.Reset()
		b.WriteString(pad(anns[i].Label, labelWidth))
		b.WriteString(columnGap)
		if descWidth > 0 {
			b.WriteString(pad(truncate(anns[i].Description, descWidth), descWidth))
			b.WriteString(columnGap)
		}
		b.WriteString(locs[i])
		if _, err := fmt.Fprintln(p.w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(truncateSuffix) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, truncateSuffix)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of the terminal behind w, or DefaultWidth.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}
