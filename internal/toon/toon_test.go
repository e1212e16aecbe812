package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/tagref/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"label with spaces", "cache invalidation", "cache invalidation"},
		{"annotation", "[tag:x]", `"[tag:x]"`},
		{"kind", "duplicate-tag", "duplicate-tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func loc(path string, line, col int) model.Location {
	return model.Location{Path: path, Line: line, Column: col}
}

func TestEncodeAnnotations(t *testing.T) {
	t.Parallel()

	anns := []model.Annotation{
		{Kind: model.Tag, Label: "alpha", Description: "first one", Location: loc("src/a.go", 3, 4)},
		{Kind: model.Tag, Label: "beta", Location: loc("src/b.go", 10, 1)},
	}

	got := strings.Split(EncodeAnnotations("tags", anns), "\n")
	want := []string{
		"tags[2]{label,description,file,line,column}:",
		"  alpha,first one,src/a.go,3,4",
		`  beta,"",src/b.go,10,1`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEncodeAnnotationsEmpty(t *testing.T) {
	t.Parallel()

	if got := EncodeAnnotations("unused", nil); got != "unused[0]{label,description,file,line,column}:" {
		t.Errorf("got %q", got)
	}
}

func TestEncodeCheckFailed(t *testing.T) {
	t.Parallel()

	diags := []model.Diagnostic{
		{Kind: model.DuplicateTag, Label: "a", Locations: []model.Location{loc("x.go", 1, 1), loc("y.go", 2, 3)}},
		{Kind: model.UnresolvedReference, Label: "true", Locations: []model.Location{loc("z.go", 5, 1)}},
	}

	got := strings.Split(EncodeCheck("myrepo", diags, "unused"), "\n")
	want := []string{
		"root: myrepo",
		"status: failed",
		"diagnostics[3]{kind,label,file,line,column}:",
		"  duplicate-tag,a,x.go,1,1",
		"  duplicate-tag,a,y.go,2,3",
		`  unresolved-reference,"true",z.go,5,1`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEncodeCheckOK(t *testing.T) {
	t.Parallel()

	got := EncodeCheck("myrepo", nil, "1 tag, 0 references validated in 1 file.")
	if !strings.Contains(got, "status: ok") {
		t.Errorf("expected ok status:\n%s", got)
	}
	if !strings.Contains(got, `summary: "1 tag, 0 references validated in 1 file."`) {
		t.Errorf("expected quoted summary:\n%s", got)
	}
	if !strings.HasSuffix(got, "diagnostics[0]{kind,label,file,line,column}:") {
		t.Errorf("expected empty diagnostics table:\n%s", got)
	}
}
