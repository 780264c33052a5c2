// Package ignore decides which paths under a docs root are out of scope.
// Exclusions come from plain directory and file names, doublestar patterns,
// and gitignore-syntax files (.docfixignore, and optionally .gitignore).
package ignore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFileName is the repo-level ignore file read from the root.
const IgnoreFileName = ".docfixignore"

// Options configure a Set
type Options struct {
	Dirs     []string // directory base names whose subtrees are skipped
	Files    []string // file base names that are skipped
	Patterns []string // doublestar patterns matched against the slash-separated relative path
	// Subtrees are exact directories, absolute or relative to the root, skipped
	// with everything below them. Entries outside the root are ignored.
	Subtrees []string
	// Gitignore layers the root's .gitignore files under the other rules.
	Gitignore bool
}

// Set is an immutable exclusion set anchored at a root directory
type Set struct {
	root     string
	dirs     map[string]bool
	files    map[string]bool
	subtrees []string
	patterns []string
	matcher  gitignore.Matcher
}

// New builds an exclusion set for root. Invalid doublestar patterns are rejected.
func New(root string, opts Options) (*Set, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	s := &Set{
		root:  rootAbs,
		dirs:  make(map[string]bool, len(opts.Dirs)),
		files: make(map[string]bool, len(opts.Files)),
	}
	for _, d := range opts.Dirs {
		s.dirs[d] = true
	}
	for _, f := range opts.Files {
		s.files[f] = true
	}
	for _, d := range opts.Subtrees {
		if d == "" {
			continue
		}
		if rel, ok := s.Rel(d); ok && normalize(rel) != "" {
			s.subtrees = append(s.subtrees, normalize(rel))
		}
	}
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		s.patterns = append(s.patterns, p)
	}

	var allPatterns []gitignore.Pattern
	if opts.Gitignore {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(rootAbs), nil); err == nil {
			allPatterns = append(allPatterns, gitPatterns...)
		}
	}
	if lines, err := readIgnoreFile(filepath.Join(rootAbs, IgnoreFileName)); err == nil {
		for _, line := range lines {
			allPatterns = append(allPatterns, gitignore.ParsePattern(line, nil))
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}
	if len(allPatterns) > 0 {
		s.matcher = gitignore.NewMatcher(allPatterns)
	}

	return s, nil
}

// readIgnoreFile reads non-empty, non-comment lines from a gitignore-syntax file
func readIgnoreFile(p string) ([]string, error) {
	// #nosec G304 -- fixed file name under the resolved root
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// Root returns the absolute root the set is anchored at
func (s *Set) Root() string {
	return s.root
}

// ExcludesDir reports whether the directory at rel (slash-separated, relative
// to the root) should not be descended into.
func (s *Set) ExcludesDir(rel string) bool {
	rel = normalize(rel)
	if rel == "" {
		return false
	}
	if s.dirs[path.Base(rel)] {
		return true
	}
	for _, st := range s.subtrees {
		if rel == st || strings.HasPrefix(rel, st+"/") {
			return true
		}
	}
	if s.matchPatterns(rel) || s.matchPatterns(rel+"/") {
		return true
	}
	return s.matcher != nil && s.matcher.Match(strings.Split(rel, "/"), true)
}

// ExcludesFile reports whether the file at rel is excluded, either by its own
// name or pattern or because one of its parent directories is excluded.
func (s *Set) ExcludesFile(rel string) bool {
	rel = normalize(rel)
	if rel == "" {
		return false
	}
	if s.files[path.Base(rel)] {
		return true
	}
	if s.matchPatterns(rel) {
		return true
	}
	if s.matcher != nil && s.matcher.Match(strings.Split(rel, "/"), false) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if s.ExcludesDir(dir) {
			return true
		}
	}
	return false
}

// Excludes checks an absolute or root-relative file path. Paths outside the
// root are never excluded by this set.
func (s *Set) Excludes(p string) bool {
	rel, ok := s.Rel(p)
	if !ok {
		return false
	}
	return s.ExcludesFile(rel)
}

// Rel converts p into a slash-separated path relative to the root
func (s *Set) Rel(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (s *Set) matchPatterns(rel string) bool {
	for _, pattern := range s.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func normalize(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.Trim(rel, "/")
	if rel == "." {
		return ""
	}
	return rel
}
