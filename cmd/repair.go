package cmd

import (
	"fmt"

	"github.com/fulmenhq/docfix/pkg/fixes"
	"github.com/fulmenhq/docfix/pkg/repair"
	"github.com/spf13/cobra"
)

func newRepairCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "repair",
		Short: "Fix known MDX defects in place",
		Long: `Repair backs up every in-scope page, then applies the fix library to each one
and rewrites the pages whose text changed. With --dry-run nothing is written
and no backup is taken, but every change is still counted and reported.

Use --restore to copy the last backup back over the tree.`,
		Args: cobra.NoArgs,
		RunE: runRepair,
	}
	c.Flags().Bool("restore", false, "Restore pages from the last backup instead of repairing")
	return c
}

func runRepair(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	engine := &repair.Engine{Config: env.cfg, Library: fixes.Default(), Logger: env.log}

	if restore, _ := cmd.Flags().GetBool("restore"); restore {
		n, err := engine.Restore()
		if err != nil {
			return err
		}
		verb := "Restored"
		if env.cfg.DryRun {
			verb = "Would restore"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d files from %s\n", verb, n, env.cfg.BackupPath())
		return nil
	}

	out, runErr := engine.Run(cmd.Context())
	var details []string
	for _, f := range out.Files {
		switch {
		case f.Error != "":
			details = append(details, fmt.Sprintf("✗ %s: %s", f.Path, f.Error))
		case f.Changed:
			details = append(details, fmt.Sprintf("✓ %s (%d fixes)", f.Path, f.IssuesFixed))
		}
	}
	if err := env.finish(cmd, out.Report, out, details); err != nil {
		return err
	}
	return outcomeError(out.Report, runErr)
}
