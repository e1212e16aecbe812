package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/phobologic/tagref/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tagref", pflag.ContinueOnError)
	fs.StringSliceP("path", "p", nil, "")
	fs.StringP("tag-sigil", "t", "", "")
	fs.StringP("ref-sigil", "r", "", "")
	fs.StringP("file-sigil", "f", "", "")
	fs.StringP("dir-sigil", "d", "", "")
	fs.IntP("jobs", "j", 0, "")
	fs.Int64("max-file-size", 0, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, path, err := Load(context.Background(), LoadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != "" {
		t.Errorf("config path = %q, want none", path)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.Sigils() != model.DefaultSigils() {
		t.Errorf("Sigils = %+v", cfg.Sigils())
	}
	if !reflect.DeepEqual(cfg.Paths, []string{"."}) {
		t.Errorf("Paths = %v", cfg.Paths)
	}
	if cfg.Jobs != 0 {
		t.Errorf("Jobs = %d, want 0 (one per CPU)", cfg.Jobs)
	}
}

func TestLoadFileAndFlags(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/a.go", "")
	writeFile(t, dir, "docs/x.md", "")
	writeFile(t, dir, FileName, `
paths = ["src"]
tag_sigil = "anchor"
ref_sigil = "see"
jobs = 3
max_file_size = 2048
`)

	fs := testFlags()
	if err := fs.Parse([]string{"--ref-sigil", "cite", "-p", "docs", "-p", "src"}); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := Load(context.Background(), LoadOptions{Dir: dir, Flags: fs})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("config path = %q", path)
	}

	want := model.Sigils{Tag: "anchor", Ref: "cite", File: "file", Dir: "dir"}
	if cfg.Sigils() != want {
		t.Errorf("Sigils = %+v, want %+v", cfg.Sigils(), want)
	}
	if !reflect.DeepEqual(cfg.Paths, []string{"docs", "src"}) {
		t.Errorf("Paths = %v", cfg.Paths)
	}
	if cfg.Jobs != 3 || cfg.MaxFileSize != 2048 {
		t.Errorf("Jobs = %d, MaxFileSize = %d", cfg.Jobs, cfg.MaxFileSize)
	}
}

// Not parallel: it sets environment variables.
func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "dir_sigil = \"folder\"\njobs = 2\n")
	t.Setenv("TAGREF_DIR_SIGIL", "directory")
	t.Setenv("TAGREF_JOBS", "5")

	fs := testFlags()
	if err := fs.Parse([]string{"-j", "7"}); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(context.Background(), LoadOptions{Dir: dir, Flags: fs})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DirSigil != "directory" {
		t.Errorf("DirSigil = %q, want environment value", cfg.DirSigil)
	}
	if cfg.Jobs != 7 {
		t.Errorf("Jobs = %d, want flag value 7", cfg.Jobs)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	other := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, filepath.Dir(other), "custom.toml", "tag_sigil = \"mark\"\n")

	cfg, path, err := Load(context.Background(), LoadOptions{Dir: dir, ConfigFile: other})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != other || cfg.TagSigil != "mark" {
		t.Errorf("path = %q, TagSigil = %q", path, cfg.TagSigil)
	}

	_, _, err = Load(context.Background(), LoadOptions{Dir: dir, ConfigFile: filepath.Join(dir, "missing.toml")})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("missing config file error = %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, FileName, "tag_sigil = [unterminated\n")
	if _, _, err := Load(context.Background(), LoadOptions{Dir: dir}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{Dir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "file.txt", "")

	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty sigil", func(c *Config) { c.TagSigil = "" }, "must not be empty"},
		{"whitespace", func(c *Config) { c.RefSigil = "my ref" }, "whitespace"},
		{"colon", func(c *Config) { c.FileSigil = "a:b" }, "':'"},
		{"bracket", func(c *Config) { c.DirSigil = "d]" }, "']'"},
		{"duplicate", func(c *Config) { c.RefSigil = "tag" }, "already used for tag"},
		{"jobs", func(c *Config) { c.Jobs = -2 }, "jobs must not be negative"},
		{"max size", func(c *Config) { c.MaxFileSize = -1 }, "max_file_size"},
		{"missing path", func(c *Config) { c.Paths = []string{"nope"} }, `path "nope" does not exist`},
		{"file path", func(c *Config) { c.Paths = []string{"file.txt"} }, ""},
		{"root not dir", func(c *Config) { c.Dir = filepath.Join(dir, "file.txt") }, "not a directory"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.Dir = dir
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tc.errMsg)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.TagSigil = ""
	cfg.Jobs = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "tag sigil") || !strings.Contains(err.Error(), "jobs") {
		t.Errorf("error = %q, want both problems", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.TagSigil = "anchor"
	cfg.Paths = []string{"src", "docs"}
	cfg.Jobs = 4

	text, err := Render(cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(text, "# tagref configuration.") {
		t.Errorf("missing header:\n%s", text)
	}

	dir := t.TempDir()
	writeFile(t, dir, "src/a.go", "")
	writeFile(t, dir, "docs/b.md", "")
	writeFile(t, dir, FileName, text)

	loaded, _, err := Load(context.Background(), LoadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Load: %v\n%s", err, text)
	}
	if loaded.TagSigil != "anchor" || loaded.Jobs != 4 || !reflect.DeepEqual(loaded.Paths, cfg.Paths) {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestRenderedPathsResolveAgainstScanRoot(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Paths = []string{"src"}
	text, err := Render(cfg)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(text, "relative to the scan root") {
		t.Errorf("paths comment should name the scan root:\n%s", text)
	}

	// The config lives outside the root; its paths still name root/src.
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "")
	elsewhere := t.TempDir()
	writeFile(t, elsewhere, "custom.toml", text)

	loaded, _, err := Load(context.Background(), LoadOptions{
		Dir:        root,
		ConfigFile: filepath.Join(elsewhere, "custom.toml"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Dir != root || !reflect.DeepEqual(loaded.Paths, []string{"src"}) {
		t.Errorf("loaded = %+v", loaded)
	}
}
