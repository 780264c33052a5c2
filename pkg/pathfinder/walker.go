// Package pathfinder discovers the in-scope documentation files under a root.
// Traversal is sequential and never aborts on a bad subtree: unreadable
// directories and symlink loops are reported as warnings and skipped.
package pathfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/fulmenhq/docfix/pkg/logger"
)

// DiscoveryError reports a path that could not be listed or resolved.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ErrSymlinkLoop marks a directory that resolves to one already visited
var ErrSymlinkLoop = errors.New("directory already visited through another path")

// WalkOptions configure a walk
type WalkOptions struct {
	// Extension filters files by suffix (case-insensitive). Empty matches every file.
	Extension string
	// Exclude is required; it decides which directories and files are out of scope.
	Exclude *ignore.Set
	Logger  *logger.Logger
}

// WalkStats provides statistics about a directory walk
type WalkStats struct {
	TotalFiles   int           `json:"totalFiles"`
	TotalDirs    int           `json:"totalDirs"`
	SkippedDirs  int           `json:"skippedDirs"`
	SkippedFiles int           `json:"skippedFiles"`
	Duration     time.Duration `json:"duration"`
}

// Result is the outcome of a walk
type Result struct {
	Root     string
	Files    []string // absolute, sorted
	Skipped  []string // root-relative paths of excluded entries
	Warnings []*DiscoveryError
	Stats    WalkStats
}

type walker struct {
	root        string
	opts        WalkOptions
	log         *logger.Logger
	visitedDirs map[string]bool
	seenFiles   map[string]bool
	result      *Result
}

// Walk performs recursive descent from root and returns every candidate file.
// Only failure to read root itself is returned as an error.
func Walk(root string, opts WalkOptions) (*Result, error) {
	if opts.Exclude == nil {
		return nil, errors.New("walk options require an exclusion set")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}
	info, err := os.Stat(rootAbs)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Path: root, Err: errors.New("not a directory")}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	w := &walker{
		root:        rootAbs,
		opts:        opts,
		log:         log,
		visitedDirs: make(map[string]bool),
		seenFiles:   make(map[string]bool),
		result:      &Result{Root: rootAbs},
	}

	start := time.Now()
	real, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		real = rootAbs
	}
	w.visitedDirs[real] = true

	entries, err := os.ReadDir(rootAbs)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}
	w.result.Stats.TotalDirs++
	w.walkEntries(rootAbs, entries)

	sort.Strings(w.result.Files)
	w.result.Stats.Duration = time.Since(start)
	log.Debug("Discovery complete",
		logger.String("root", rootAbs),
		logger.Int("files", len(w.result.Files)),
		logger.Int("warnings", len(w.result.Warnings)))
	return w.result, nil
}

func (w *walker) walkDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.warn(dir, err)
		return
	}
	w.result.Stats.TotalDirs++
	w.walkEntries(dir, entries)
}

func (w *walker) walkEntries(dir string, entries []os.DirEntry) {
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		rel := w.rel(path)

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				w.warn(path, fmt.Errorf("broken symlink: %w", err))
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if w.opts.Exclude.ExcludesDir(rel) {
				w.skip(rel, true)
				continue
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				w.warn(path, err)
				continue
			}
			if w.visitedDirs[real] {
				w.warn(path, ErrSymlinkLoop)
				continue
			}
			w.visitedDirs[real] = true
			w.walkDir(path)
			continue
		}

		if !w.matchesExtension(entry.Name()) {
			continue
		}
		if w.opts.Exclude.ExcludesFile(rel) {
			w.skip(rel, false)
			continue
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			w.warn(path, err)
			continue
		}
		if w.seenFiles[real] {
			w.log.Debug("Skipping alias of already discovered file", logger.String("path", rel))
			continue
		}
		w.seenFiles[real] = true
		w.result.Files = append(w.result.Files, path)
		w.result.Stats.TotalFiles++
	}
}

func (w *walker) matchesExtension(name string) bool {
	if w.opts.Extension == "" {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), w.opts.Extension)
}

func (w *walker) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *walker) skip(rel string, dir bool) {
	w.result.Skipped = append(w.result.Skipped, rel)
	if dir {
		w.result.Stats.SkippedDirs++
	} else {
		w.result.Stats.SkippedFiles++
	}
	w.log.Trace("Excluded", logger.String("path", rel), logger.Bool("dir", dir))
}

func (w *walker) warn(path string, err error) {
	derr := &DiscoveryError{Path: w.rel(path), Err: err}
	w.result.Warnings = append(w.result.Warnings, derr)
	w.log.Warn("Skipping unreadable path", logger.String("path", derr.Path), logger.Err(err))
}
