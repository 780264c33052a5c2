// Package backup snapshots the in-scope files of a docs tree before a live
// repair run mutates anything.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/docfix/pkg/logger"
	"github.com/fulmenhq/docfix/pkg/safeio"
)

// MarkerFile is written at the top of every completed snapshot.
const MarkerFile = ".docfix-snapshot.json"

// BackupError aborts a run: nothing may be mutated after one is returned.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("backup failed: %v", e.Err)
	}
	return fmt.Sprintf("backup failed at %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// Snapshot describes a completed backup
type Snapshot struct {
	Root      string    `json:"-"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	FileCount int       `json:"fileCount"`
	Files     []string  `json:"files"`
}

// Create replaces any backup at backupRoot with a copy of files, mirrored by
// their path relative to sourceRoot. Either every file is copied and the
// marker written, or the partial backup is removed and a *BackupError returned.
func Create(sourceRoot, backupRoot string, files []string, log *logger.Logger) (*Snapshot, error) {
	if log == nil {
		log = logger.Discard()
	}
	sourceAbs, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, &BackupError{Path: sourceRoot, Err: err}
	}
	backupAbs, err := filepath.Abs(backupRoot)
	if err != nil {
		return nil, &BackupError{Path: backupRoot, Err: err}
	}
	if err := checkLayout(sourceAbs, backupAbs); err != nil {
		return nil, &BackupError{Path: backupRoot, Err: err}
	}
	if err := CheckTarget(backupAbs); err != nil {
		return nil, &BackupError{Path: backupRoot, Err: err}
	}

	if err := os.RemoveAll(backupAbs); err != nil {
		return nil, &BackupError{Path: backupRoot, Err: fmt.Errorf("removing previous backup: %w", err)}
	}
	if err := os.MkdirAll(backupAbs, 0o750); err != nil {
		return nil, &BackupError{Path: backupRoot, Err: err}
	}

	snap := &Snapshot{
		Root:      backupAbs,
		Source:    sourceAbs,
		CreatedAt: time.Now().UTC(),
	}

	fail := func(path string, err error) (*Snapshot, error) {
		if rmErr := os.RemoveAll(backupAbs); rmErr != nil {
			log.Warn("Could not remove partial backup", logger.String("path", backupAbs), logger.Err(rmErr))
		}
		return nil, &BackupError{Path: path, Err: err}
	}

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fail(file, err)
		}
		rel, err := filepath.Rel(sourceAbs, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fail(file, errors.New("file is outside the source root"))
		}
		if err := safeio.CopyFile(abs, filepath.Join(backupAbs, rel)); err != nil {
			return fail(file, err)
		}
		snap.Files = append(snap.Files, filepath.ToSlash(rel))
	}
	snap.FileCount = len(snap.Files)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fail(MarkerFile, err)
	}
	if err := os.WriteFile(filepath.Join(backupAbs, MarkerFile), data, 0o600); err != nil {
		return fail(MarkerFile, err)
	}

	log.Info("Backup created", logger.String("path", backupAbs), logger.Int("files", snap.FileCount))
	return snap, nil
}

// checkLayout rejects a backup root that is, or contains, the source root
func checkLayout(sourceAbs, backupAbs string) error {
	if sourceAbs == backupAbs {
		return errors.New("backup directory must differ from the source root")
	}
	rel, err := filepath.Rel(backupAbs, sourceAbs)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.New("backup directory must not contain the source root")
	}
	return nil
}

// CheckTarget reports whether backupRoot may be replaced by a new snapshot.
// It must be missing, an empty directory, or a directory holding MarkerFile.
// Anything else could be user content and is never removed.
func CheckTarget(backupRoot string) error {
	info, err := os.Lstat(backupRoot)
	if err != nil {
		// Missing, or unreachable; creating it reports the real problem.
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", backupRoot)
	}
	if _, err := os.Stat(filepath.Join(backupRoot, MarkerFile)); err == nil {
		return nil
	}
	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s is not empty and holds no docfix snapshot", backupRoot)
	}
	return nil
}

// Load reads the snapshot marker of an existing backup
func Load(backupRoot string) (*Snapshot, error) {
	backupAbs, err := filepath.Abs(backupRoot)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- fixed marker name under the configured backup root
	data, err := os.ReadFile(filepath.Join(backupAbs, MarkerFile))
	if err != nil {
		return nil, fmt.Errorf("no usable backup at %s: %w", backupRoot, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt backup marker: %w", err)
	}
	snap.Root = backupAbs
	return &snap, nil
}

// Restore copies every file recorded in snap back under sourceRoot and
// returns how many were restored. It stops at the first failure.
func Restore(snap *Snapshot, sourceRoot string, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Discard()
	}
	restored := 0
	for _, rel := range snap.Files {
		clean, err := safeio.CleanUserPath(rel)
		if err != nil {
			return restored, fmt.Errorf("refusing to restore %s: %w", rel, err)
		}
		src := filepath.Join(snap.Root, filepath.FromSlash(clean))
		dst := filepath.Join(sourceRoot, filepath.FromSlash(clean))
		if err := safeio.CopyFile(src, dst); err != nil {
			return restored, fmt.Errorf("restoring %s: %w", rel, err)
		}
		log.Debug("Restored file", logger.String("path", rel))
		restored++
	}
	return restored, nil
}
