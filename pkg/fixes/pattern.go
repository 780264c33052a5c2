/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package fixes

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Match is one occurrence of a defect found by a pattern
type Match struct {
	Text string `json:"text"`
	Line int    `json:"line"`
}

// Pattern is a named rewrite rule. Find and Apply share one matcher, so
// validation always reports exactly what a repair would change.
type Pattern interface {
	Name() string
	Description() string
	// AppliesTo restricts a pattern to particular files. Most patterns apply everywhere.
	AppliesTo(path string) bool
	// Find reports every match without rewriting anything.
	Find(text string) []Match
	// Apply rewrites every match and returns the new text with the number of fixes.
	Apply(text string) (string, int, error)
}

// ErrPanic marks a pattern that panicked while rewriting
var ErrPanic = errors.New("pattern panicked")

// PatternError reports a pattern that failed on a single file
type PatternError struct {
	Pattern string
	Path    string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %s failed on %s: %v", e.Pattern, e.Path, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Fired records a pattern that changed a file
type Fired struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MatchCount  int    `json:"matchCount"`
}

// Result is the outcome of applying a library to one document
type Result struct {
	Text        string
	Fired       []Fired
	IssuesFixed int
}

// Finding groups the matches of one pattern in one document
type Finding struct {
	Pattern Pattern
	Matches []Match
}

// Library is an ordered, immutable sequence of patterns
type Library struct {
	patterns []Pattern
}

// NewLibrary builds a library from patterns in application order.
// Pattern names must be unique.
func NewLibrary(patterns ...Pattern) (*Library, error) {
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if p == nil {
			return nil, errors.New("nil pattern")
		}
		name := p.Name()
		if name == "" {
			return nil, errors.New("pattern with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate pattern name %q", name)
		}
		seen[name] = true
	}
	return &Library{patterns: append([]Pattern(nil), patterns...)}, nil
}

// Patterns returns the library's patterns in order
func (l *Library) Patterns() []Pattern {
	return append([]Pattern(nil), l.patterns...)
}

// Lookup returns the pattern with the given name
func (l *Library) Lookup(name string) (Pattern, bool) {
	for _, p := range l.patterns {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Apply runs every applicable pattern in order, each on the output of the
// previous one. The first failing pattern stops processing of the document.
func (l *Library) Apply(path, text string) (*Result, error) {
	res := &Result{}
	for _, p := range l.patterns {
		if !p.AppliesTo(path) {
			continue
		}
		out, n, err := safeApply(p, text)
		if err != nil {
			return nil, &PatternError{Pattern: p.Name(), Path: path, Err: err}
		}
		if n == 0 {
			continue
		}
		text = out
		res.Fired = append(res.Fired, Fired{Name: p.Name(), Description: p.Description(), MatchCount: n})
		res.IssuesFixed += n
	}
	res.Text = text
	return res, nil
}

// Find evaluates the match condition of every applicable pattern against the
// unmodified text. It never rewrites.
func (l *Library) Find(path, text string) (findings []Finding, err error) {
	for _, p := range l.patterns {
		if !p.AppliesTo(path) {
			continue
		}
		matches, ferr := safeFind(p, text)
		if ferr != nil {
			return nil, &PatternError{Pattern: p.Name(), Path: path, Err: ferr}
		}
		if len(matches) > 0 {
			findings = append(findings, Finding{Pattern: p, Matches: matches})
		}
	}
	return findings, nil
}

func safeApply(p Pattern, text string) (out string, n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return p.Apply(text)
}

func safeFind(p Pattern, text string) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return p.Find(text), nil
}

// hit is a match located by byte offset
type hit struct {
	offset int
	text   string
}

// rewriteFunc rewrites one region of a document. It must return the region
// unchanged and no hits when nothing matches.
type rewriteFunc func(region string) (string, []hit)

// rule is the Pattern implementation behind every built-in fix
type rule struct {
	name        string
	description string
	scope       Scope
	files       []string
	rewrite     rewriteFunc
}

// newRule builds a pattern from a rewrite restricted to scope. When files is
// non-empty the pattern only applies to documents with one of those base names.
func newRule(name, description string, scope Scope, rewrite rewriteFunc, files ...string) *rule {
	return &rule{name: name, description: description, scope: scope, files: files, rewrite: rewrite}
}

func (r *rule) Name() string        { return r.name }
func (r *rule) Description() string { return r.description }

func (r *rule) AppliesTo(path string) bool {
	if len(r.files) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, f := range r.files {
		if strings.EqualFold(base, f) {
			return true
		}
	}
	return false
}

func (r *rule) Apply(text string) (string, int, error) {
	out, hits := r.run(text)
	return out, len(hits), nil
}

func (r *rule) Find(text string) []Match {
	_, hits := r.run(text)
	if len(hits) == 0 {
		return nil
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		off := min(h.offset, len(text))
		matches[i] = Match{Text: h.text, Line: 1 + strings.Count(text[:off], "\n")}
	}
	return matches
}

func (r *rule) run(text string) (string, []hit) {
	var (
		b    strings.Builder
		hits []hit
		last int
	)
	for _, sp := range regions(text, r.scope) {
		out, found := r.rewrite(text[sp.start:sp.end])
		if len(found) == 0 {
			continue
		}
		for _, h := range found {
			h.offset += sp.start
			hits = append(hits, h)
		}
		b.WriteString(text[last:sp.start])
		b.WriteString(out)
		last = sp.end
	}
	if len(hits) == 0 {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), hits
}

// chain runs rewrites in sequence over the same region. Offsets from later
// steps refer to the partially rewritten region, so they are approximate.
func chain(steps ...rewriteFunc) rewriteFunc {
	return func(region string) (string, []hit) {
		var hits []hit
		for _, step := range steps {
			out, found := step(region)
			region = out
			hits = append(hits, found...)
		}
		return region, hits
	}
}
