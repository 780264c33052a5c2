package cmd

import (
	"fmt"

	"github.com/fulmenhq/docfix/pkg/scaffold"
	"github.com/spf13/cobra"
)

func newScaffoldCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "scaffold",
		Short: "Create the pages a navigation manifest lists",
		Long: `Scaffold reads a navigation manifest (JSON, YAML or TOML) and writes a
starter page for every listed path that does not exist yet. Existing pages are
skipped unless --force is given. Protected files and the manifest itself are
never written.`,
		Args: cobra.NoArgs,
		RunE: runScaffold,
	}
	c.Flags().String("manifest", "", "Navigation manifest (default docs.json under --root)")
	c.Flags().String("output", "", "Directory pages are written under (default --root)")
	return c
}

func runScaffold(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	g := &scaffold.Generator{Config: env.cfg, Logger: env.log}
	out, runErr := g.Run(cmd.Context())

	var details []string
	for _, e := range out.Entries {
		switch e.Action {
		case scaffold.ActionCreated, scaffold.ActionOverwritten:
			details = append(details, fmt.Sprintf("✓ %s %s (%s)", e.Action, e.Target, e.Template))
		case scaffold.ActionFailed:
			details = append(details, fmt.Sprintf("✗ %s: %s", e.Path, e.Error))
		case scaffold.ActionSkipped:
			if e.Reason != "file exists" {
				details = append(details, fmt.Sprintf("- skipped %s: %s", e.Path, e.Reason))
			}
		}
	}
	if err := env.finish(cmd, out.Report, out, details); err != nil {
		return err
	}
	return outcomeError(out.Report, runErr)
}
