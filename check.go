package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/tagref/internal/check"
	"github.com/phobologic/tagref/internal/report"
	"github.com/phobologic/tagref/internal/toon"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that tags are unique and every reference resolves",
		Long: `Check scans the tree and reports every duplicate tag, every reference
without a uniquely defined tag, and every file or directory reference that does
not point to an existing file or directory. It exits with status 1 if anything
was reported.`,
		Args: cobra.NoArgs,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	cfg, res, err := a.scanTree(cmd)
	if err != nil {
		return err
	}

	diags := check.Run(res.Index, check.Options{Root: cfg.Dir, Sigils: cfg.Sigils()})
	summary := report.SummaryLine(res.Index)

	switch a.format {
	case formatJSON:
		err = report.WriteJSON(a.stdout, diags, summary)
	case formatTOON:
		_, err = fmt.Fprintln(a.stdout, toon.EncodeCheck(rootName(cfg), diags, summary))
	default:
		if len(diags) > 0 {
			err = a.printer(a.stderr).Diagnostics(diags)
		} else {
			err = a.printer(a.stdout).Summary(res.Index)
		}
	}
	if err != nil {
		return err
	}

	if len(diags) > 0 {
		return &exitError{reason: fmt.Sprintf("%d problems found", len(diags))}
	}
	return nil
}
