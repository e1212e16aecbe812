// tagref checks cross-references between tags and the code that depends on them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phobologic/tagref/internal/config"
	"github.com/phobologic/tagref/internal/report"
	"github.com/phobologic/tagref/internal/scan"
)

var version = "dev"

const (
	formatText = "text"
	formatJSON = "json"
	formatTOON = "toon"
)

// exitError reports a failure that has already been written to the output.
// main exits with status 1 without printing it again.
type exitError struct {
	reason string
}

func (e *exitError) Error() string {
	return e.reason
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		var exit *exitError
		if !errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app holds the state shared by every subcommand of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	chdir      string
	configFile string
	format     string
	colorMode  string
	verbose    bool

	logger *log.Logger
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tagref",
		Short: "Check cross-references between tags and references in a codebase",
		Long: `tagref finds annotations written in brackets anywhere in a codebase:

  [tag:label]   declares a uniquely named location
  [ref:label]   depends on the tag with that label
  [file:path]   asserts that a file exists
  [dir:path]    asserts that a directory exists

Running tagref with no subcommand is the same as "tagref check".`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: a.runCheck,
	}
	root.SetVersionTemplate("tagref {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringSliceP("path", "p", nil, "paths to scan, relative to the scan root (repeatable, default .)")
	pf.StringP("tag-sigil", "t", "", `sigil for tags (default "tag")`)
	pf.StringP("ref-sigil", "r", "", `sigil for references (default "ref")`)
	pf.StringP("file-sigil", "f", "", `sigil for file references (default "file")`)
	pf.StringP("dir-sigil", "d", "", `sigil for directory references (default "dir")`)
	pf.IntP("jobs", "j", 0, "files to scan concurrently (default one per CPU)")
	pf.Int64("max-file-size", 0, "skip files larger than this many bytes (0 for no limit)")
	pf.StringVarP(&a.chdir, "chdir", "C", ".", "scan root; reported paths are relative to it")
	pf.StringVar(&a.configFile, "config", "", "config file (default <scan root>/"+config.FileName+")")
	pf.StringVar(&a.format, "format", formatText, "output format: text|json|toon")
	pf.StringVar(&a.colorMode, "color", "auto", "colorize output: auto|always|never")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.checkCommand(),
		a.listCommand("list-tags", "List all tags", listTags),
		a.listCommand("list-refs", "List all references", listRefs),
		a.listCommand("list-files", "List all file references", listFiles),
		a.listCommand("list-dirs", "List all directory references", listDirs),
		a.listUnusedCommand(),
		a.initCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(a.stdout, "tagref %s\n", version)
				return err
			},
		},
	)

	return root
}

func (a *app) setup() error {
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{
		Prefix: "tagref",
		Level:  level,
	})

	switch a.format {
	case formatText, formatJSON, formatTOON:
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or toon)", config.ErrInvalidConfiguration, a.format)
	}
	switch a.colorMode {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: unknown color mode %q (want auto, always or never)", config.ErrInvalidConfiguration, a.colorMode)
	}
	return nil
}

func (a *app) loadConfig(cmd *cobra.Command, configFile string) (*config.Config, error) {
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{
		Dir:        a.chdir,
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// scanTree loads the configuration and scans the tree it describes.
func (a *app) scanTree(cmd *cobra.Command) (*config.Config, *scan.Result, error) {
	cfg, err := a.loadConfig(cmd, a.configFile)
	if err != nil {
		return nil, nil, err
	}
	res, err := scan.Run(cmd.Context(), scan.Options{
		Root:        cfg.Dir,
		Paths:       cfg.Paths,
		Sigils:      cfg.Sigils(),
		Jobs:        cfg.Jobs,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, res, nil
}

func (a *app) printer(w io.Writer) *report.Printer {
	useColor := a.colorMode == "always" || (a.colorMode == "auto" && report.IsTerminal(w))
	return report.New(w, report.Options{
		Color: useColor,
		Width: report.TerminalWidth(w),
	})
}

func rootName(cfg *config.Config) string {
	return filepath.Base(cfg.Dir)
}
