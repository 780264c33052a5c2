/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/docfix/internal/ops"
	"github.com/fulmenhq/docfix/pkg/backup"
	"github.com/fulmenhq/docfix/pkg/buildinfo"
	"github.com/fulmenhq/docfix/pkg/exitcode"
	"github.com/fulmenhq/docfix/pkg/manifest"
	"github.com/fulmenhq/docfix/pkg/pathfinder"
	"github.com/spf13/cobra"
)

// exitError carries the process exit code for an error returned by a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// exitCodeFor maps a command error onto the documented exit codes
func exitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var berr *backup.BackupError
	if errors.As(err, &berr) {
		return exitcode.BackupAborted
	}
	var lerr *manifest.LoadError
	if errors.As(err, &lerr) {
		return exitcode.ManifestAborted
	}
	var derr *pathfinder.DiscoveryError
	if errors.As(err, &derr) {
		return exitcode.FileSystemError
	}
	return exitcode.GeneralError
}

// newRootCommand creates a fresh root command with every subcommand attached.
// Tests build their own tree so flag state never leaks between runs.
func newRootCommand() *cobra.Command {
	reg := ops.NewRegistry()
	cmd := &cobra.Command{
		Use:   "docfix",
		Short: "Repair, validate and scaffold MDX documentation",
		Long: `Docfix keeps an MDX documentation tree healthy. It repairs known syntax
defects in place (after taking a backup), reports what a repair would change,
and creates the pages a navigation manifest lists but the tree lacks.

Examples:
   docfix validate                # Report defects without touching files
   docfix repair --dry-run        # Show what repair would change
   docfix repair                  # Back up, then fix every page
   docfix repair --restore        # Put the last backup back
   docfix scaffold --manifest docs.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default .docfix.yaml in . or $HOME)")
	cmd.PersistentFlags().String("root", ".", "Documentation root directory")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs and results in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("dry-run", false, "Report every change without writing anything")
	cmd.PersistentFlags().Bool("verbose", false, "Log per-file detail (same as --log-level debug)")
	cmd.PersistentFlags().Bool("force", false, "Overwrite existing pages when scaffolding")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("docfix {{.Version}}\n")

	registerSubcommands(cmd, reg)

	// Grouped help by command group (Docs → Support)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if c != cmd {
			c.Println(c.Long)
			c.Println()
			c.Print(c.UsageString())
			return
		}
		c.Println(c.Long)
		c.Println()
		c.Println("Documentation Commands:")
		for _, r := range reg.GetCommandsByGroup(ops.GroupDocs) {
			c.Printf("  %-12s %s\n", r.Name, r.Description)
		}
		c.Println()
		c.Println("Support Commands:")
		for _, r := range reg.GetCommandsByGroup(ops.GroupSupport) {
			c.Printf("  %-12s %s\n", r.Name, r.Description)
		}
		c.Println()
		c.Println("Flags:")
		c.Print(c.LocalFlags().FlagUsages())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command and classifies them for help output
func registerSubcommands(cmd *cobra.Command, reg *ops.Registry) {
	subcommands := []struct {
		group ops.CommandGroup
		cmd   *cobra.Command
	}{
		{ops.GroupDocs, newRepairCommand()},
		{ops.GroupDocs, newValidateCommand()},
		{ops.GroupDocs, newScaffoldCommand()},
		{ops.GroupSupport, newVersionCommand()},
	}
	for _, s := range subcommands {
		cmd.AddCommand(s.cmd)
		if err := reg.Register(s.cmd.Name(), s.group, s.cmd, s.cmd.Short); err != nil {
			panic(err)
		}
	}
	if errs := reg.CheckCore(); len(errs) > 0 {
		panic(errs[0])
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code matching the outcome.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docfix: %v\n", err)
	}
	os.Exit(exitCodeFor(err))
}
