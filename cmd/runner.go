package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fulmenhq/docfix/pkg/ascii"
	"github.com/fulmenhq/docfix/pkg/config"
	"github.com/fulmenhq/docfix/pkg/exitcode"
	"github.com/fulmenhq/docfix/pkg/logger"
	"github.com/fulmenhq/docfix/pkg/run"
	"github.com/spf13/cobra"
)

// runEnv is what every docs command needs for one invocation
type runEnv struct {
	cfg      *config.Config
	log      *logger.Logger
	jsonMode bool
}

// setup loads configuration and builds the per-run logger from the command's flags
func setup(cmd *cobra.Command) (*runEnv, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{File: file, Flags: cmd.Flags()})
	if err != nil {
		return nil, &exitError{code: exitcode.ConfigError, err: err}
	}

	levelStr, _ := cmd.Flags().GetString("log-level")
	jsonMode, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level := logger.ParseLevel(levelStr)
	if cfg.Verbose && level > logger.DebugLevel {
		level = logger.DebugLevel
	}
	log := logger.New(logger.Config{
		Level:     level,
		UseColor:  !noColor && !jsonMode,
		JSON:      jsonMode,
		Component: "docfix",
		DryRun:    cfg.DryRun,
		Output:    cmd.ErrOrStderr(),
	})
	log.Debug("Loaded configuration",
		logger.String("root", cfg.Root),
		logger.Bool("dry_run", cfg.DryRun),
		logger.String("run_id", log.RunID()))
	return &runEnv{cfg: cfg, log: log, jsonMode: jsonMode}, nil
}

// finish persists the log summary and prints the result, boxed or as JSON
func (e *runEnv) finish(cmd *cobra.Command, report *run.Report, payload any, details []string) error {
	if err := e.log.Flush(e.cfg.LogPath(), report.Stats); err != nil {
		e.log.Warn("Could not write log summary", logger.String("path", e.cfg.LogPath()), logger.Err(err))
	}

	out := cmd.OutOrStdout()
	if e.jsonMode {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}
	for _, line := range details {
		_, _ = fmt.Fprintln(out, line)
	}
	if len(details) > 0 {
		_, _ = fmt.Fprintln(out)
	}
	_, _ = fmt.Fprint(out, ascii.Box(report.Lines()))
	return nil
}

// outcomeError turns a finished run into the command's error. A run that
// aborted keeps its cause; per-file failures become CompletedWithError.
func outcomeError(report *run.Report, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if report != nil && report.Status == run.CompletedWithErrors {
		return &exitError{code: exitcode.CompletedWithError, err: errors.New(report.Headline())}
	}
	return nil
}
