package safeio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path resolves outside its allowed base directory.
var ErrOutsideBase = errors.New("path is outside base directory")

// ErrSymlink is returned when a write target is a symbolic link.
var ErrSymlink = errors.New("target is a symbolic link")

// WriteError reports a file that could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	for _, part := range strings.Split(filepath.ToSlash(c), "/") {
		if part == ".." {
			return "", errors.New("path traversal detected")
		}
	}
	return filepath.ToSlash(c), nil
}

// Contained reports whether target resolves to a location within baseDir.
func Contained(baseDir, target string) (bool, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false, errors.New("failed to resolve base directory")
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false, errors.New("failed to resolve file path")
	}
	rel, err := filepath.Rel(baseDirAbs, targetAbs)
	if err != nil {
		return false, errors.New("failed to compute relative path")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// ContainedResolved is Contained after resolving symlinks in the existing
// part of both paths, so a linked directory or file cannot lead target out
// of baseDir. Missing trailing components are compared lexically.
func ContainedResolved(baseDir, target string) (bool, error) {
	baseResolved, err := resolveExisting(baseDir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	targetResolved, err := resolveExisting(target)
	if err != nil {
		return false, fmt.Errorf("failed to resolve file path: %w", err)
	}
	return Contained(baseResolved, targetResolved)
}

// resolveExisting evaluates symlinks in the longest existing prefix of p
func resolveExisting(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	cur, rest := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	ok, err := Contained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOutsideBase
	}
	// #nosec G304 -- containment verified above
	return os.ReadFile(filePath)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// CreateFile writes data to a new file. Unless overwrite is set, an existing
// file is left alone and an error wrapping os.ErrExist is returned. A symlink
// at path is never written through.
func CreateFile(path string, data []byte, overwrite bool) error {
	if st, err := os.Lstat(path); err == nil && st.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s: %w", path, ErrSymlink)
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	// #nosec G304 -- callers resolve path against their output root
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CopyFile copies src to dst, creating dst's parent directories and keeping src's mode.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 -- src comes from the walker
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 -- dst is mirrored under the backup root
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
