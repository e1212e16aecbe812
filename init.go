package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/tagref/internal/config"
)

func (a *app) initCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.FileName + " with the current settings",
		Long: `Init writes a ` + config.FileName + ` file to the scan root holding the
settings in effect, so flags such as --tag-sigil can be recorded once instead of
passed on every run. It refuses to replace an existing file unless --force is
given.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.Flags().Bool("dry-run", false, "print the config file instead of writing it")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to read --force flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read --dry-run flag: %w", err)
	}

	// A --config file that does not exist yet is the one to create.
	readFrom := a.configFile
	if readFrom != "" {
		if _, err := os.Stat(readFrom); errors.Is(err, fs.ErrNotExist) {
			readFrom = ""
		}
	}

	cfg, err := a.loadConfig(cmd, readFrom)
	if err != nil {
		return err
	}
	content, err := config.Render(cfg)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := fmt.Fprint(a.stdout, content)
		return err
	}

	path := a.configFile
	if path == "" {
		path = filepath.Join(cfg.Dir, config.FileName)
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", path)
	return nil
}
