package repair

import (
	"context"
	"fmt"

	"github.com/fulmenhq/docfix/pkg/config"
	"github.com/fulmenhq/docfix/pkg/fixes"
	"github.com/fulmenhq/docfix/pkg/format/finalizer"
	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/fulmenhq/docfix/pkg/logger"
	"github.com/fulmenhq/docfix/pkg/pathfinder"
	"github.com/fulmenhq/docfix/pkg/run"
	"github.com/fulmenhq/docfix/pkg/safeio"
)

// MaxExamples caps the example matches reported per issue
const MaxExamples = 3

// Issue is one kind of defect found in a file
type Issue struct {
	IssueType string        `json:"issueType"`
	Count     int           `json:"count"`
	Message   string        `json:"message"`
	Examples  []fixes.Match `json:"examples"`
}

// FileIssues lists the issues found in one file
type FileIssues struct {
	Path   string  `json:"path"`
	Issues []Issue `json:"issues"`
	Error  string  `json:"error,omitempty"`
}

// Validation is the result of a validate run
type Validation struct {
	Report   *run.Report                  `json:"report"`
	Files    []*FileIssues                `json:"files"`
	Warnings []*pathfinder.DiscoveryError `json:"-"`
}

// Validator reports what a repair would change. It never writes and needs no backup.
type Validator struct {
	Config  *config.Config
	Library *fixes.Library
	Logger  *logger.Logger
}

// Run validates every in-scope file under the root
func (v *Validator) Run(ctx context.Context) (*Validation, error) {
	cfg := v.Config
	log := v.Logger
	if log == nil {
		log = logger.Discard()
	}
	tracker := run.NewTracker()
	var stats run.Stats
	out := &Validation{}

	abort := func(err error) (*Validation, error) {
		tracker.Abort(err)
		log.Error("Validation aborted before starting", logger.Err(err))
		out.Report = run.NewReport("validate", false, tracker, stats)
		return out, err
	}

	exclude, err := ignore.New(cfg.Root, cfg.IgnoreOptions())
	if err != nil {
		return abort(fmt.Errorf("building exclusion set: %w", err))
	}
	if err := tracker.Advance(run.Discovery); err != nil {
		return abort(err)
	}
	found, err := pathfinder.Walk(cfg.Root, pathfinder.WalkOptions{
		Extension: cfg.Extension,
		Exclude:   exclude,
		Logger:    log,
	})
	if err != nil {
		return abort(err)
	}
	out.Warnings = found.Warnings
	stats.Errors += len(found.Warnings)
	stats.FilesSkipped += found.Stats.SkippedFiles

	if err := tracker.Advance(run.Processing); err != nil {
		return abort(err)
	}
	for _, path := range found.Files {
		if err := ctx.Err(); err != nil {
			log.Warn("Validation interrupted", logger.Err(err))
			stats.Errors++
			break
		}
		rel, _ := exclude.Rel(path)
		fi := &FileIssues{Path: rel}
		out.Files = append(out.Files, fi)
		stats.FilesScanned++

		issues, err := v.validate(exclude.Root(), path, rel, log)
		if err != nil {
			fi.Error = err.Error()
			stats.Errors++
			log.Error("Failed to validate file", logger.String("path", rel), logger.Err(err))
			continue
		}
		fi.Issues = issues
		for _, is := range issues {
			stats.IssuesFound += is.Count
			log.Warn(is.Message, logger.String("path", rel), logger.String("issue", is.IssueType))
		}
	}

	if err := tracker.Advance(run.Summary); err != nil {
		return abort(err)
	}
	if err := tracker.Finish(stats); err != nil {
		return abort(err)
	}
	out.Report = run.NewReport("validate", false, tracker, stats)
	log.Info(out.Report.Headline(), logger.Int("issues", stats.IssuesFound))
	return out, nil
}

// ValidateFile evaluates every applicable pattern's match condition on one file
func (v *Validator) ValidateFile(path string) ([]Issue, error) {
	log := v.Logger
	if log == nil {
		log = logger.Discard()
	}
	exclude, err := ignore.New(v.Config.Root, v.Config.IgnoreOptions())
	if err != nil {
		return nil, err
	}
	rel, _ := exclude.Rel(path)
	return v.validate(exclude.Root(), path, rel, log)
}

func (v *Validator) validate(root, path, rel string, log *logger.Logger) ([]Issue, error) {
	data, err := safeio.ReadFileContained(root, path)
	if err != nil {
		return nil, &pathfinder.DiscoveryError{Path: rel, Err: err}
	}
	if !finalizer.IsProcessableText(data) {
		log.Warn("Skipping file that is not UTF-8 text", logger.String("path", rel))
		return nil, nil
	}
	findings, err := v.Library.Find(rel, string(data))
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(findings))
	for _, f := range findings {
		examples := f.Matches
		if len(examples) > MaxExamples {
			examples = examples[:MaxExamples]
		}
		issues = append(issues, Issue{
			IssueType: f.Pattern.Name(),
			Count:     len(f.Matches),
			Message:   issueMessage(f.Pattern.Description(), len(f.Matches)),
			Examples:  append([]fixes.Match(nil), examples...),
		})
	}
	return issues, nil
}

func issueMessage(description string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%s (1 occurrence)", description)
	}
	return fmt.Sprintf("%s (%d occurrences)", description, count)
}
