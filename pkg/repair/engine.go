/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package repair applies the fix library to every in-scope document under a
// root, and answers what a repair would change without changing anything.
package repair

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/docfix/pkg/backup"
	"github.com/fulmenhq/docfix/pkg/config"
	"github.com/fulmenhq/docfix/pkg/fixes"
	"github.com/fulmenhq/docfix/pkg/format/finalizer"
	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/fulmenhq/docfix/pkg/logger"
	"github.com/fulmenhq/docfix/pkg/pathfinder"
	"github.com/fulmenhq/docfix/pkg/run"
	"github.com/fulmenhq/docfix/pkg/safeio"
)

// FileReport is the outcome of repairing one file
type FileReport struct {
	Path        string        `json:"path"`
	Changed     bool          `json:"changed"`
	Skipped     bool          `json:"skipped,omitempty"`
	IssuesFixed int           `json:"issuesFixed"`
	Fired       []fixes.Fired `json:"firedPatterns,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Outcome is the result of a repair run
type Outcome struct {
	Report   *run.Report                  `json:"report"`
	Files    []*FileReport                `json:"files"`
	Snapshot *backup.Snapshot             `json:"snapshot,omitempty"`
	Warnings []*pathfinder.DiscoveryError `json:"-"`
}

// Engine runs repairs. Config and Library are required.
type Engine struct {
	Config  *config.Config
	Library *fixes.Library
	Logger  *logger.Logger

	exclude *ignore.Set
}

func (e *Engine) log() *logger.Logger {
	if e.Logger == nil {
		e.Logger = logger.Discard()
	}
	return e.Logger
}

func (e *Engine) excludeSet() (*ignore.Set, error) {
	if e.exclude != nil {
		return e.exclude, nil
	}
	set, err := ignore.New(e.Config.Root, e.Config.IgnoreOptions())
	if err != nil {
		return nil, err
	}
	e.exclude = set
	return set, nil
}

// Run walks the root, snapshots in-scope files when live, then repairs each
// file in turn. A backup or discovery failure aborts the run before any file
// is written and is returned as the error; per-file failures are counted in
// the report and never stop the run.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	cfg := e.Config
	log := e.log()
	tracker := run.NewTracker()
	var stats run.Stats
	out := &Outcome{}

	abort := func(err error) (*Outcome, error) {
		tracker.Abort(err)
		log.Error("Repair aborted before starting", logger.Err(err))
		out.Report = run.NewReport("repair", cfg.DryRun, tracker, stats)
		return out, err
	}

	exclude, err := e.excludeSet()
	if err != nil {
		return abort(fmt.Errorf("building exclusion set: %w", err))
	}

	walk := func() (*pathfinder.Result, error) {
		return pathfinder.Walk(cfg.Root, pathfinder.WalkOptions{
			Extension: cfg.Extension,
			Exclude:   exclude,
			Logger:    log,
		})
	}

	var found *pathfinder.Result
	if !cfg.DryRun {
		if err := tracker.Advance(run.Backup); err != nil {
			return abort(err)
		}
		if found, err = walk(); err != nil {
			return abort(err)
		}
		snap, err := backup.Create(cfg.Root, cfg.BackupPath(), found.Files, log)
		if err != nil {
			return abort(err)
		}
		out.Snapshot = snap
	}

	if err := tracker.Advance(run.Discovery); err != nil {
		return abort(err)
	}
	if found == nil {
		if found, err = walk(); err != nil {
			return abort(err)
		}
	}
	out.Warnings = found.Warnings
	stats.Errors += len(found.Warnings)
	stats.FilesSkipped += found.Stats.SkippedFiles
	log.Info("Discovered files", logger.Int("count", len(found.Files)), logger.Int("skipped", len(found.Skipped)))

	if err := tracker.Advance(run.Processing); err != nil {
		return abort(err)
	}
	for _, path := range found.Files {
		if err := ctx.Err(); err != nil {
			log.Warn("Repair interrupted", logger.Err(err))
			stats.Errors++
			break
		}
		rep, ferr := e.RepairFile(path)
		out.Files = append(out.Files, rep)
		stats.FilesScanned++
		switch {
		case ferr != nil:
			stats.Errors++
			log.Error("Failed to repair file", logger.String("path", rep.Path), logger.Err(ferr))
		case rep.Skipped:
			stats.FilesSkipped++
		case rep.Changed:
			stats.FilesChanged++
			stats.IssuesFound += rep.IssuesFixed
			stats.IssuesFixed += rep.IssuesFixed
		}
	}

	if err := tracker.Advance(run.Summary); err != nil {
		return abort(err)
	}
	if err := tracker.Finish(stats); err != nil {
		return abort(err)
	}
	out.Report = run.NewReport("repair", cfg.DryRun, tracker, stats)
	log.Info(out.Report.Headline())
	return out, nil
}

// RepairFile applies the library to one file. The file is rewritten only
// when its text changed, the run is live and the path is still in scope.
// The returned error is a *pathfinder.DiscoveryError, *fixes.PatternError
// or *safeio.WriteError; the report is always non-nil.
func (e *Engine) RepairFile(path string) (*FileReport, error) {
	log := e.log()
	exclude, err := e.excludeSet()
	if err != nil {
		return &FileReport{Path: path, Error: err.Error()}, err
	}
	rel, ok := exclude.Rel(path)
	if !ok {
		rel = filepath.ToSlash(path)
	}
	rep := &FileReport{Path: rel}
	fail := func(err error) (*FileReport, error) {
		rep.Error = err.Error()
		rep.Changed = false
		rep.IssuesFixed = 0
		rep.Fired = nil
		return rep, err
	}

	data, err := safeio.ReadFileContained(exclude.Root(), path)
	if err != nil {
		return fail(&pathfinder.DiscoveryError{Path: rel, Err: err})
	}
	if !finalizer.IsProcessableText(data) {
		log.Warn("Skipping file that is not UTF-8 text", logger.String("path", rel))
		rep.Skipped = true
		return rep, nil
	}

	original := string(data)
	res, err := e.Library.Apply(rel, original)
	if err != nil {
		return fail(err)
	}
	if res.Text == original {
		log.Debug("No changes needed", logger.String("path", rel))
		return rep, nil
	}
	rep.Changed = true
	rep.IssuesFixed = res.IssuesFixed
	rep.Fired = res.Fired

	if exclude.Excludes(path) {
		log.Warn("Refusing to write excluded file", logger.String("path", rel))
		rep.Changed = false
		rep.Skipped = true
		rep.IssuesFixed = 0
		rep.Fired = nil
		return rep, nil
	}

	if e.Config.DryRun {
		log.Info("Would repair file", logger.String("path", rel), logger.Int("fixes", rep.IssuesFixed))
		return rep, nil
	}
	if err := safeio.WriteFilePreservePerms(path, []byte(res.Text)); err != nil {
		return fail(&safeio.WriteError{Path: rel, Err: err})
	}
	log.Success("Repaired file", logger.String("path", rel), logger.Int("fixes", rep.IssuesFixed))
	return rep, nil
}

// Restore copies the last backup snapshot back over the root
func (e *Engine) Restore() (int, error) {
	log := e.log()
	snap, err := backup.Load(e.Config.BackupPath())
	if err != nil {
		return 0, err
	}
	if e.Config.DryRun {
		for _, f := range snap.Files {
			log.Info("Would restore file", logger.String("path", f))
		}
		return len(snap.Files), nil
	}
	n, err := backup.Restore(snap, e.Config.Root, log)
	if err != nil {
		return n, err
	}
	log.Success("Restored backup", logger.Int("files", n), logger.String("from", e.Config.BackupPath()))
	return n, nil
}
