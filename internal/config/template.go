package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

const header = `# tagref configuration.
#
# Every key can be overridden with a TAGREF_<KEY> environment variable or the
# matching command-line flag.

`

// fileConfig mirrors the keys of a .tagref.toml file.
type fileConfig struct {
	Paths       []string `toml:"paths" comment:"Root paths to scan, relative to the scan root."`
	TagSigil    string   `toml:"tag_sigil" comment:"Sigils recognized before the colon inside square brackets."`
	RefSigil    string   `toml:"ref_sigil"`
	FileSigil   string   `toml:"file_sigil"`
	DirSigil    string   `toml:"dir_sigil"`
	Jobs        int      `toml:"jobs" comment:"Files extracted concurrently. 0 uses one worker per CPU."`
	MaxFileSize int64    `toml:"max_file_size" comment:"Skip files larger than this many bytes. 0 disables the limit."`
}

// Render returns cfg as the contents of a .tagref.toml file.
func Render(cfg *Config) (string, error) {
	fc := fileConfig{
		Paths:       cfg.Paths,
		TagSigil:    cfg.TagSigil,
		RefSigil:    cfg.RefSigil,
		FileSigil:   cfg.FileSigil,
		DirSigil:    cfg.DirSigil,
		Jobs:        cfg.Jobs,
		MaxFileSize: cfg.MaxFileSize,
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return buf.String(), nil
}
