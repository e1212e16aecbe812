// Package config loads and validates tagref settings from flags, the
// environment and a .tagref.toml file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/tagref/internal/model"
)

// FileName is the config file looked up in the scan root.
const FileName = ".tagref.toml"

// EnvPrefix prefixes the environment variables that override config keys,
// e.g. TAGREF_TAG_SIGIL.
const EnvPrefix = "TAGREF"

// ErrInvalidConfiguration is wrapped by every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config holds the settings of one run.
type Config struct {
	// Dir is the absolute scan root. It is never read from a file.
	Dir string `mapstructure:"-"`

	Paths       []string `mapstructure:"paths"`
	TagSigil    string   `mapstructure:"tag_sigil"`
	RefSigil    string   `mapstructure:"ref_sigil"`
	FileSigil   string   `mapstructure:"file_sigil"`
	DirSigil    string   `mapstructure:"dir_sigil"`
	Jobs        int      `mapstructure:"jobs"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	s := model.DefaultSigils()
	return &Config{
		Paths:     []string{"."},
		TagSigil:  s.Tag,
		RefSigil:  s.Ref,
		FileSigil: s.File,
		DirSigil:  s.Dir,
	}
}

// Sigils returns the configured sigils.
func (c *Config) Sigils() model.Sigils {
	return model.Sigils{Tag: c.TagSigil, Ref: c.RefSigil, File: c.FileSigil, Dir: c.DirSigil}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"path":          "paths",
	"tag-sigil":     "tag_sigil",
	"ref-sigil":     "ref_sigil",
	"file-sigil":    "file_sigil",
	"dir-sigil":     "dir_sigil",
	"jobs":          "jobs",
	"max-file-size": "max_file_size",
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// Dir is the scan root. Empty means the working directory.
	Dir string
	// ConfigFile overrides the default Dir/.tagref.toml. It must exist.
	ConfigFile string
	// Flags, when set, are bound with the highest precedence. Only flags the
	// user changed take effect.
	Flags *pflag.FlagSet
}

// Load merges defaults, the config file, TAGREF_* environment variables and
// flags, in increasing order of precedence, then validates the result. It
// returns the path of the config file read, or "" if there was none.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving root: %w", err)
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("paths", defaults.Paths)
	v.SetDefault("tag_sigil", defaults.TagSigil)
	v.SetDefault("ref_sigil", defaults.RefSigil)
	v.SetDefault("file_sigil", defaults.FileSigil)
	v.SetDefault("dir_sigil", defaults.DirSigil)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("max_file_size", defaults.MaxFileSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	resolvedPath := ""
	switch {
	case opts.ConfigFile != "":
		if !fileExists(opts.ConfigFile) {
			return nil, "", fmt.Errorf("%w: config file not found: %s", ErrInvalidConfiguration, opts.ConfigFile)
		}
		resolvedPath = opts.ConfigFile
	case fileExists(filepath.Join(dir, FileName)):
		resolvedPath = filepath.Join(dir, FileName)
	}
	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("%w: reading %s: %v", ErrInvalidConfiguration, resolvedPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	cfg.Dir = dir
	if len(cfg.Paths) == 0 {
		cfg.Paths = defaults.Paths
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// Validate checks the sigils, the scan root, the root paths and the numeric
// limits. Every problem found is reported; each wraps ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...)))
	}

	seen := make(map[string]model.Kind, len(model.Kinds))
	sigils := c.Sigils()
	for _, kind := range model.Kinds {
		sigil := sigils.For(kind)
		if err := validateSigil(sigil); err != nil {
			invalid("%s sigil %q: %v", kind, sigil, err)
			continue
		}
		if other, dup := seen[sigil]; dup {
			invalid("%s sigil %q is already used for %s", kind, sigil, other)
			continue
		}
		seen[sigil] = kind
	}

	if c.Jobs < 0 {
		invalid("jobs must not be negative, got %d", c.Jobs)
	}
	if c.MaxFileSize < 0 {
		invalid("max_file_size must not be negative, got %d", c.MaxFileSize)
	}

	if info, err := os.Stat(c.Dir); err != nil {
		invalid("scan root: %v", err)
	} else if !info.IsDir() {
		invalid("scan root %s is not a directory", c.Dir)
	} else {
		for _, p := range c.Paths {
			abs := p
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(c.Dir, p)
			}
			if _, err := os.Stat(abs); err != nil {
				invalid("path %q does not exist", p)
			}
		}
	}

	return errors.Join(errs...)
}

func validateSigil(sigil string) error {
	if sigil == "" {
		return errors.New("must not be empty")
	}
	for _, r := range sigil {
		switch {
		case unicode.IsSpace(r):
			return errors.New("must not contain whitespace")
		case r == ':' || r == '[' || r == ']':
			return fmt.Errorf("must not contain %q", r)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
