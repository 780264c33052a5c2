// Package run tracks the lifecycle and statistics of a single repair,
// validate or scaffold invocation.
package run

import (
	"errors"
	"fmt"
	"time"
)

// Phase is a step of a run. Phases only move forward.
type Phase int

const (
	Idle Phase = iota
	Backup
	Discovery
	Processing
	Summary
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Backup:
		return "backup"
	case Discovery:
		return "discovery"
	case Processing:
		return "processing"
	case Summary:
		return "summary"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Status is the terminal outcome of a run
type Status string

const (
	Running             Status = "running"
	Completed           Status = "completed"
	CompletedWithErrors Status = "completed_with_errors"
	Aborted             Status = "aborted"
)

// Stats accumulates counts over one run. It is never reused across runs.
type Stats struct {
	FilesScanned int `json:"filesScanned"`
	FilesChanged int `json:"filesChanged"`
	FilesCreated int `json:"filesCreated"`
	DirsCreated  int `json:"dirsCreated"`
	IssuesFound  int `json:"issuesFound"`
	IssuesFixed  int `json:"issuesFixed"`
	FilesSkipped int `json:"filesSkipped"`
	Errors       int `json:"errors"`
}

// ErrIllegalTransition is returned when a phase change would move backwards or skip Summary
var ErrIllegalTransition = errors.New("illegal phase transition")

// next lists the phases each phase may advance to. Validation and scaffold
// runs skip Backup; a run with nothing to process may go straight to Summary.
var next = map[Phase][]Phase{
	Idle:       {Backup, Discovery, Processing},
	Backup:     {Discovery},
	Discovery:  {Processing, Summary},
	Processing: {Summary},
	Summary:    {Done},
}

// Tracker drives a run through its phases
type Tracker struct {
	phase    Phase
	status   Status
	cause    error
	started  time.Time
	finished time.Time
	now      func() time.Time
}

// NewTracker returns a tracker in the Idle phase
func NewTracker() *Tracker {
	return &Tracker{phase: Idle, status: Running, started: time.Now(), now: time.Now}
}

// Phase returns the current phase
func (t *Tracker) Phase() Phase { return t.phase }

// Status returns the run status; Running until Finish or Abort
func (t *Tracker) Status() Status { return t.status }

// Cause returns the error that aborted the run, if any
func (t *Tracker) Cause() error { return t.cause }

// Started returns when the tracker was created
func (t *Tracker) Started() time.Time { return t.started }

// Finished returns when the run reached Done, or the zero time
func (t *Tracker) Finished() time.Time { return t.finished }

// Advance moves the run to phase p
func (t *Tracker) Advance(p Phase) error {
	if t.status == Aborted {
		return fmt.Errorf("%w: run was aborted in %s", ErrIllegalTransition, t.phase)
	}
	for _, allowed := range next[t.phase] {
		if allowed == p {
			t.phase = p
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.phase, p)
}

// Abort ends the run without passing through Summary
func (t *Tracker) Abort(cause error) {
	t.status = Aborted
	t.cause = cause
	t.finished = t.now()
}

// Finish moves a run in Summary to Done and records its status from stats
func (t *Tracker) Finish(stats Stats) error {
	if err := t.Advance(Done); err != nil {
		return err
	}
	t.finished = t.now()
	if stats.Errors > 0 {
		t.status = CompletedWithErrors
	} else {
		t.status = Completed
	}
	return nil
}

// Duration is the time from creation to the end of the run, or to now when still running
func (t *Tracker) Duration() time.Duration {
	if t.finished.IsZero() {
		return t.now().Sub(t.started)
	}
	return t.finished.Sub(t.started)
}
