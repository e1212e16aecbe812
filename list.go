package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/tagref/internal/index"
	"github.com/phobologic/tagref/internal/model"
	"github.com/phobologic/tagref/internal/report"
	"github.com/phobologic/tagref/internal/toon"
	"github.com/phobologic/tagref/internal/views"
)

type listing struct {
	name string // TOON table name
	view func(*index.Index) []model.Annotation
}

var (
	listTags   = listing{"tags", views.Tags}
	listRefs   = listing{"refs", views.Refs}
	listFiles  = listing{"files", views.Files}
	listDirs   = listing{"dirs", views.Dirs}
	listUnused = listing{"unused", views.Unused}
)

func (a *app) listCommand(use, short string, l listing) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runList(cmd, l)
			return err
		},
	}
	cmd.Flags().String("match", "", "only list labels containing this text (case-insensitive)")
	return cmd
}

func (a *app) listUnusedCommand() *cobra.Command {
	cmd := a.listCommand("list-unused", "List tags that no reference points to", listUnused)
	cmd.Flags().Bool("fail-if-any", false, "exit with status 1 if any unused tag is found")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		n, err := a.runList(cmd, listUnused)
		if err != nil {
			return err
		}
		failIfAny, err := cmd.Flags().GetBool("fail-if-any")
		if err != nil {
			return fmt.Errorf("failed to read --fail-if-any flag: %w", err)
		}
		if failIfAny && n > 0 {
			return &exitError{reason: fmt.Sprintf("%d unused tags found", n)}
		}
		return nil
	}
	return cmd
}

// runList prints one view of the index, sorted by label, and returns how many
// annotations it printed.
func (a *app) runList(cmd *cobra.Command, l listing) (int, error) {
	match, err := cmd.Flags().GetString("match")
	if err != nil {
		return 0, fmt.Errorf("failed to read --match flag: %w", err)
	}

	_, res, err := a.scanTree(cmd)
	if err != nil {
		return 0, err
	}
	anns := views.Sorted(views.Filter(l.view(res.Index), match))

	switch a.format {
	case formatJSON:
		err = report.WriteAnnotationsJSON(a.stdout, anns)
	case formatTOON:
		_, err = fmt.Fprintln(a.stdout, toon.EncodeAnnotations(l.name, anns))
	default:
		err = a.printer(a.stdout).Listing(anns)
	}
	return len(anns), err
}
