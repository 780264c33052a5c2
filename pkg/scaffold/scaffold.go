/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package scaffold creates the documentation pages a navigation manifest
// names but the tree does not have yet. Existing pages are never touched
// unless the run is forced.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fulmenhq/docfix/pkg/config"
	"github.com/fulmenhq/docfix/pkg/format/finalizer"
	"github.com/fulmenhq/docfix/pkg/frontmatter"
	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/fulmenhq/docfix/pkg/logger"
	"github.com/fulmenhq/docfix/pkg/manifest"
	"github.com/fulmenhq/docfix/pkg/run"
	"github.com/fulmenhq/docfix/pkg/safeio"
)

// Entry actions
const (
	ActionCreated     = "created"
	ActionOverwritten = "overwritten"
	ActionSkipped     = "skipped"
	ActionFailed      = "failed"
)

// EntryResult is what happened to one manifest page
type EntryResult struct {
	Path     string `json:"path"`
	Target   string `json:"target,omitempty"`
	Action   string `json:"action"`
	Template string `json:"template,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Outcome is the result of a scaffold run
type Outcome struct {
	Report  *run.Report    `json:"report"`
	Entries []*EntryResult `json:"entries"`
}

// Generator writes missing pages. Config is required; Templates defaults to
// those found in Config.Scaffold.TemplateDir.
type Generator struct {
	Config    *config.Config
	Logger    *logger.Logger
	Templates *Templates
}

func (g *Generator) log() *logger.Logger {
	if g.Logger == nil {
		g.Logger = logger.Discard()
	}
	return g.Logger
}

// Run loads the configured manifest and generates its pages. A manifest that
// cannot be loaded aborts the run and is returned as a *manifest.LoadError.
func (g *Generator) Run(ctx context.Context) (*Outcome, error) {
	m, err := manifest.Load(g.Config.ManifestPath())
	if err != nil {
		tracker := run.NewTracker()
		tracker.Abort(err)
		g.log().Error("Scaffold aborted before starting", logger.Err(err))
		return &Outcome{Report: run.NewReport("scaffold", g.Config.DryRun, tracker, run.Stats{})}, err
	}
	return g.Generate(ctx, m)
}

// Generate creates every page of m that does not exist yet. Per-page
// problems are logged and counted; they never stop the run.
func (g *Generator) Generate(ctx context.Context, m *manifest.Manifest) (*Outcome, error) {
	cfg := g.Config
	log := g.log()
	tracker := run.NewTracker()
	var stats run.Stats
	out := &Outcome{}

	abort := func(err error) (*Outcome, error) {
		tracker.Abort(err)
		log.Error("Scaffold aborted before starting", logger.Err(err))
		out.Report = run.NewReport("scaffold", cfg.DryRun, tracker, stats)
		return out, err
	}

	if err := tracker.Advance(run.Discovery); err != nil {
		return abort(err)
	}
	if g.Templates == nil {
		t, err := LoadTemplates(cfg.Scaffold.TemplateDir)
		if err != nil {
			return abort(err)
		}
		g.Templates = t
	}
	outRoot, err := filepath.Abs(cfg.OutputPath())
	if err != nil {
		return abort(fmt.Errorf("resolving output root: %w", err))
	}
	exclude, err := ignore.New(outRoot, cfg.IgnoreOptions())
	if err != nil {
		return abort(fmt.Errorf("building exclusion set: %w", err))
	}
	entries := m.Flatten()
	log.Info("Loaded navigation manifest", logger.String("source", m.Source), logger.Int("pages", len(entries)))

	p := &planner{
		cfg:      cfg,
		root:     outRoot,
		exclude:  exclude,
		manifest: absOrEmpty(m.Source),
		seen:     make(map[string]bool, len(entries)),
	}

	if err := tracker.Advance(run.Processing); err != nil {
		return abort(err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			log.Warn("Scaffold interrupted", logger.Err(err))
			stats.Errors++
			break
		}
		res := g.generate(p, entry, &stats)
		out.Entries = append(out.Entries, res)
	}

	if err := tracker.Advance(run.Summary); err != nil {
		return abort(err)
	}
	if err := tracker.Finish(stats); err != nil {
		return abort(err)
	}
	out.Report = run.NewReport("scaffold", cfg.DryRun, tracker, stats)
	log.Info(out.Report.Headline())
	return out, nil
}

// planner decides where a manifest page goes and whether it may be written
type planner struct {
	cfg      *config.Config
	root     string
	exclude  *ignore.Set
	manifest string
	seen     map[string]bool
}

// target maps a manifest page path onto an output-relative file path
func (p *planner) target(page string) (string, error) {
	clean, err := safeio.CleanUserPath(page)
	if err != nil {
		return "", err
	}
	if path.Ext(clean) == p.cfg.Extension {
		clean = strings.TrimSuffix(clean, p.cfg.Extension)
	}
	return clean + p.cfg.Extension, nil
}

// protected reports why rel must not be written, or "" when it may be
func (p *planner) protected(rel, abs string) string {
	if p.manifest != "" && abs == p.manifest {
		return "target is the navigation manifest"
	}
	for _, pattern := range p.cfg.Scaffold.Protected {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return "target matches protected pattern " + pattern
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, path.Base(rel)); ok {
				return "target matches protected pattern " + pattern
			}
		}
	}
	if p.exclude.ExcludesFile(rel) {
		return "target is excluded"
	}
	return ""
}

func (g *Generator) generate(p *planner, entry manifest.Entry, stats *run.Stats) *EntryResult {
	cfg := g.Config
	log := g.log()
	res := &EntryResult{Path: entry.Path}
	skip := func(reason string) *EntryResult {
		res.Action = ActionSkipped
		res.Reason = reason
		stats.FilesSkipped++
		return res
	}
	fail := func(err error) *EntryResult {
		res.Action = ActionFailed
		res.Error = err.Error()
		stats.Errors++
		log.Error("Failed to scaffold page", logger.String("path", entry.Path), logger.Err(err))
		return res
	}

	if entry.Path == "" {
		log.Warn("Skipping manifest page with empty path", logger.String("group", strings.Join(entry.Breadcrumb, " > ")))
		return skip("empty page path")
	}
	rel, err := p.target(entry.Path)
	if err != nil {
		return fail(fmt.Errorf("page %q: %w", entry.Path, err))
	}
	res.Target = rel
	abs := filepath.Join(p.root, filepath.FromSlash(rel))
	if ok, err := safeio.ContainedResolved(p.root, abs); err != nil || !ok {
		return fail(fmt.Errorf("page %q resolves outside the output root", entry.Path))
	}

	if p.seen[rel] {
		log.Warn("Duplicate page path in manifest", logger.String("path", rel))
		return skip("duplicate page path")
	}
	p.seen[rel] = true

	if reason := p.protected(rel, abs); reason != "" {
		log.Warn("Refusing to scaffold protected path", logger.String("path", rel), logger.String("reason", reason))
		return skip(reason)
	}

	exists := false
	if _, err := os.Stat(abs); err == nil {
		exists = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(&safeio.WriteError{Path: rel, Err: err})
	}
	if exists && !cfg.Force {
		log.Info("Page already exists", logger.String("path", rel))
		return skip("file exists")
	}

	res.Template = g.classify(entry.Path)
	content, err := g.render(entry, res.Template)
	if err != nil {
		return fail(err)
	}

	dirs, err := missingDirs(filepath.Dir(abs))
	if err != nil {
		return fail(&safeio.WriteError{Path: rel, Err: err})
	}

	action := ActionCreated
	if exists {
		action = ActionOverwritten
	}
	if cfg.DryRun {
		log.Info("Would scaffold page", logger.String("path", rel), logger.String("template", res.Template), logger.Bool("overwrite", exists))
	} else {
		if dirs > 0 {
			if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
				return fail(&safeio.WriteError{Path: rel, Err: err})
			}
		}
		if err := safeio.CreateFile(abs, []byte(content), cfg.Force); err != nil {
			if errors.Is(err, fs.ErrExist) {
				log.Info("Page already exists", logger.String("path", rel))
				return skip("file exists")
			}
			return fail(&safeio.WriteError{Path: rel, Err: err})
		}
		log.Success("Scaffolded page", logger.String("path", rel), logger.String("template", res.Template))
	}

	stats.DirsCreated += dirs
	res.Action = action
	if exists {
		stats.FilesChanged++
	} else {
		stats.FilesCreated++
	}
	return res
}

// classify picks the API template for pages under a configured API prefix
func (g *Generator) classify(page string) string {
	for _, prefix := range g.Config.Scaffold.APIPrefixes {
		if prefix != "" && strings.HasPrefix(page, prefix) {
			return APITemplate
		}
	}
	return BasicTemplate
}

func (g *Generator) render(entry manifest.Entry, template string) (string, error) {
	title := Humanize(path.Base(entry.Path), g.Config.Extension)
	description := Describe(title, entry.Breadcrumb)

	fm, err := frontmatter.Render([]frontmatter.Field{
		{Key: "title", Value: title},
		{Key: "description", Value: description},
	})
	if err != nil {
		return "", err
	}
	body, err := g.Templates.Render(template, map[string]interface{}{
		"title":       title,
		"description": description,
		"path":        entry.Path,
		"section":     strings.Join(entry.Breadcrumb, " > "),
		"resource":    strings.ToLower(title),
	})
	if err != nil {
		return "", err
	}
	text, _ := finalizer.EnsureSingleTrailingNewline(fm + "\n" + strings.TrimLeft(body, "\n"))
	return text, nil
}

// Humanize turns a path segment such as "getting-started" into "Getting Started".
// Only ext is dropped from the segment, so "guide.v2" keeps its dot.
func Humanize(segment, ext string) string {
	if ext != "" && path.Ext(segment) == ext {
		segment = strings.TrimSuffix(segment, ext)
	}
	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return segment
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// Describe builds the generated page description from its title and the
// names of the groups that contain it.
func Describe(title string, breadcrumb []string) string {
	if len(breadcrumb) == 0 {
		return title + " documentation."
	}
	return fmt.Sprintf("%s documentation for the %s section.", title, strings.Join(breadcrumb, " > "))
}

// missingDirs counts the directories between dir and the first existing
// ancestor, so dry runs report the same count a live run would create.
func missingDirs(dir string) (int, error) {
	n := 0
	for d := dir; ; d = filepath.Dir(d) {
		info, err := os.Stat(d)
		if err == nil {
			if !info.IsDir() {
				return n, fmt.Errorf("%s is not a directory", d)
			}
			return n, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return n, err
		}
		n++
		if parent := filepath.Dir(d); parent == d {
			return n, nil
		}
	}
}

func absOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	return abs
}
