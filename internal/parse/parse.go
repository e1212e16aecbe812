// Package parse extracts annotations from source text using sigil patterns.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/phobologic/tagref/internal/model"
)

// ErrBinary is returned by Decode for content that is not text.
var ErrBinary = errors.New("not valid UTF-8 text")

// Matcher holds the compiled pattern for each annotation kind.
// It is immutable and safe to share across goroutines.
type Matcher struct {
	sigils   model.Sigils
	patterns [len(model.Kinds)]*regexp.Regexp
}

// Compile builds a Matcher for the given sigils.
func Compile(sigils model.Sigils) (*Matcher, error) {
	m := &Matcher{sigils: sigils}
	for _, kind := range model.Kinds {
		sigil := sigils.For(kind)
		if sigil == "" {
			return nil, fmt.Errorf("empty %s sigil", kind)
		}
		re, err := regexp.Compile(`\[` + regexp.QuoteMeta(sigil) + `:([^\]]*)\]`)
		if err != nil {
			return nil, fmt.Errorf("compiling %s pattern: %w", kind, err)
		}
		m.patterns[kind] = re
	}
	return m, nil
}

// Sigils returns the sigils the matcher was compiled for.
func (m *Matcher) Sigils() model.Sigils {
	return m.sigils
}

// Extract returns every annotation in text ordered by line, column and kind.
// path is only used for Location.Path and should be relative to the scan root.
func (m *Matcher) Extract(path, text string) []model.Annotation {
	if text == "" {
		return nil
	}

	var anns []model.Annotation
	lineNo := 0
	for len(text) > 0 {
		lineNo++
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = ""
		}
		line = strings.TrimSuffix(line, "\r")

		if strings.IndexByte(line, '[') < 0 {
			continue
		}
		anns = m.extractLine(anns, path, lineNo, line)
	}
	return anns
}

func (m *Matcher) extractLine(anns []model.Annotation, path string, lineNo int, line string) []model.Annotation {
	start := len(anns)
	for _, kind := range model.Kinds {
		for _, loc := range m.patterns[kind].FindAllStringSubmatchIndex(line, -1) {
			label := strings.TrimSpace(line[loc[2]:loc[3]])
			// An empty path still asserts something and is left for the
			// validator; an empty tag or reference names nothing.
			if label == "" && (kind == model.Tag || kind == model.Ref) {
				continue
			}
			anns = append(anns, model.Annotation{
				Kind:        kind,
				Label:       label,
				Description: description(line[loc[1]:]),
				Location: model.Location{
					Path:   path,
					Line:   lineNo,
					Column: utf8.RuneCountInString(line[:loc[0]]) + 1,
				},
			})
		}
	}

	found := anns[start:]
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Location.Column != found[j].Location.Column {
			return found[i].Location.Column < found[j].Location.Column
		}
		return found[i].Kind < found[j].Kind
	})
	return anns
}

// description is the text following an annotation on its line, minus the
// separator punctuation commonly written after a tag ("[tag:x]: why").
func description(rest string) string {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimLeft(rest, ".,:")
	return strings.TrimSpace(rest)
}

// Decode converts raw file content to text. A UTF-8 byte order mark is dropped and
// UTF-16 content with a byte order mark is transcoded. Anything else must already
// be valid UTF-8, otherwise ErrBinary is returned.
func Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	if !hasUTF16BOM(data) && !utf8.Valid(data) {
		return "", ErrBinary
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return "", fmt.Errorf("decoding: %w", err)
	}
	if !utf8.Valid(decoded) {
		return "", ErrBinary
	}
	return string(decoded), nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFE, 0xFF}) || bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}
