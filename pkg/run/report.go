package run

import (
	"fmt"
	"time"
)

// Report is the outcome of one run, printed as the final console summary
type Report struct {
	Command  string        `json:"command"`
	DryRun   bool          `json:"dryRun"`
	Status   Status        `json:"status"`
	Phase    string        `json:"phase"`
	Stats    Stats         `json:"stats"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// NewReport snapshots a tracker and its statistics
func NewReport(command string, dryRun bool, t *Tracker, stats Stats) *Report {
	return &Report{
		Command:  command,
		DryRun:   dryRun,
		Status:   t.Status(),
		Phase:    t.Phase().String(),
		Stats:    stats,
		Duration: t.Duration(),
		Err:      t.Cause(),
	}
}

// Headline distinguishes partial success from a run that never started
func (r *Report) Headline() string {
	prefix := r.Command
	if r.DryRun {
		prefix += " (dry run)"
	}
	switch r.Status {
	case Aborted:
		if r.Err != nil {
			return fmt.Sprintf("%s aborted before starting: %v", prefix, r.Err)
		}
		return prefix + " aborted before starting"
	case CompletedWithErrors:
		return fmt.Sprintf("%s completed with %d errors", prefix, r.Stats.Errors)
	case Completed:
		return prefix + " completed"
	default:
		return prefix + " " + string(r.Status)
	}
}

// Lines renders the summary body shown under the headline
func (r *Report) Lines() []string {
	lines := []string{r.Headline(), ""}
	s := r.Stats
	switch r.Command {
	case "scaffold":
		lines = append(lines,
			fmt.Sprintf("Files created:  %d", s.FilesCreated),
			fmt.Sprintf("Dirs created:   %d", s.DirsCreated),
			fmt.Sprintf("Files skipped:  %d", s.FilesSkipped),
		)
	case "validate":
		lines = append(lines,
			fmt.Sprintf("Files scanned:  %d", s.FilesScanned),
			fmt.Sprintf("Issues found:   %d", s.IssuesFound),
			fmt.Sprintf("Files skipped:  %d", s.FilesSkipped),
		)
	default:
		lines = append(lines,
			fmt.Sprintf("Files scanned:  %d", s.FilesScanned),
			fmt.Sprintf("Files changed:  %d", s.FilesChanged),
			fmt.Sprintf("Issues fixed:   %d", s.IssuesFixed),
			fmt.Sprintf("Files skipped:  %d", s.FilesSkipped),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Errors:         %d", s.Errors),
		fmt.Sprintf("Duration:       %s", r.Duration.Round(time.Millisecond)),
	)
	return lines
}
