package cmd

import (
	"fmt"

	"github.com/fulmenhq/docfix/pkg/exitcode"
	"github.com/fulmenhq/docfix/pkg/fixes"
	"github.com/fulmenhq/docfix/pkg/repair"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate",
		Short: "Report what repair would change",
		Long: `Validate checks every in-scope page against the fix library and lists each
kind of defect with a count and a few examples. It never writes and needs no
backup. Issues are not an error unless --strict is given.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
	c.Flags().Bool("strict", false, "Exit with status 3 when any issue is found")
	return c
}

func runValidate(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	v := &repair.Validator{Config: env.cfg, Library: fixes.Default(), Logger: env.log}
	out, runErr := v.Run(cmd.Context())

	var details []string
	for _, f := range out.Files {
		if f.Error != "" {
			details = append(details, fmt.Sprintf("✗ %s: %s", f.Path, f.Error))
		}
		for _, is := range f.Issues {
			details = append(details, fmt.Sprintf("%s: [%s] %s", f.Path, is.IssueType, is.Message))
			for _, ex := range is.Examples {
				details = append(details, fmt.Sprintf("    line %d: %s", ex.Line, ex.Text))
			}
		}
	}
	if err := env.finish(cmd, out.Report, out, details); err != nil {
		return err
	}
	if err := outcomeError(out.Report, runErr); err != nil {
		return err
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict && out.Report.Stats.IssuesFound > 0 {
		return &exitError{
			code: exitcode.ValidationFailed,
			err:  fmt.Errorf("validation found %d issues", out.Report.Stats.IssuesFound),
		}
	}
	return nil
}
