package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/docfix/pkg/backup"
	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds everything a single docfix run needs. It is built once per
// invocation and passed to each component explicitly.
type Config struct {
	Root      string         `mapstructure:"root"`
	Extension string         `mapstructure:"extension"`
	BackupDir string         `mapstructure:"backup_dir"`
	LogFile   string         `mapstructure:"log_file"`
	Manifest  string         `mapstructure:"manifest"`
	OutputDir string         `mapstructure:"output_dir"`
	Exclude   ExcludeConfig  `mapstructure:"exclude"`
	Scaffold  ScaffoldConfig `mapstructure:"scaffold"`
	DryRun    bool           `mapstructure:"dry_run"`
	Verbose   bool           `mapstructure:"verbose"`
	Force     bool           `mapstructure:"force"`
}

// ExcludeConfig lists what the walker never yields
type ExcludeConfig struct {
	Dirs     []string `mapstructure:"dirs"`
	Files    []string `mapstructure:"files"`
	Patterns []string `mapstructure:"patterns"`

	// Gitignore also honors the root's .gitignore files.
	Gitignore bool `mapstructure:"gitignore"`
}

// ScaffoldConfig holds scaffold generator options
type ScaffoldConfig struct {
	// Protected are doublestar patterns, relative to the output root, that scaffold must never write.
	Protected   []string `mapstructure:"protected"`
	APIPrefixes []string `mapstructure:"api_prefixes"`
	TemplateDir string   `mapstructure:"template_dir"`
}

var defaultConfig = Config{
	Root:      ".",
	Extension: ".mdx",
	BackupDir: ".docfix-backup",
	LogFile:   ".docfix/last-run.json",
	Manifest:  "docs.json",
	OutputDir: ".",
	Exclude: ExcludeConfig{
		Dirs:      []string{"node_modules", ".git", ".next", "dist", "build", ".docfix-backup", ".docfix"},
		Files:     []string{"README.md", "CHANGELOG.md", "LICENSE"},
		Patterns:  []string{"**/_*.mdx"},
		Gitignore: true,
	},
	Scaffold: ScaffoldConfig{
		Protected: []string{
			"docs.json", "mint.json", "package.json", "package-lock.json", "tsconfig.json",
			"*.config.js", "**/.git/**", "**/node_modules/**",
		},
		APIPrefixes: []string{"api-reference/"},
	},
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	c := defaultConfig
	c.Exclude.Dirs = append([]string(nil), defaultConfig.Exclude.Dirs...)
	c.Exclude.Files = append([]string(nil), defaultConfig.Exclude.Files...)
	c.Exclude.Patterns = append([]string(nil), defaultConfig.Exclude.Patterns...)
	c.Scaffold.Protected = append([]string(nil), defaultConfig.Scaffold.Protected...)
	c.Scaffold.APIPrefixes = append([]string(nil), defaultConfig.Scaffold.APIPrefixes...)
	return &c
}

// LoadOptions controls where Load looks for settings
type LoadOptions struct {
	// File is an explicit config file; when empty .docfix.{yaml,json,toml} is searched in . and $HOME.
	File string
	// Flags are bound over file and environment values when set on the command line.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names onto config keys
var flagKeys = map[string]string{
	"root":     "root",
	"dry-run":  "dry_run",
	"verbose":  "verbose",
	"force":    "force",
	"manifest": "manifest",
	"output":   "output_dir",
}

// Load builds the run configuration from defaults, an optional config file,
// DOCFIX_* environment variables and command-line flags, in increasing priority.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", defaultConfig.Root)
	v.SetDefault("extension", defaultConfig.Extension)
	v.SetDefault("backup_dir", defaultConfig.BackupDir)
	v.SetDefault("log_file", defaultConfig.LogFile)
	v.SetDefault("manifest", defaultConfig.Manifest)
	v.SetDefault("output_dir", defaultConfig.OutputDir)
	v.SetDefault("exclude.dirs", defaultConfig.Exclude.Dirs)
	v.SetDefault("exclude.files", defaultConfig.Exclude.Files)
	v.SetDefault("exclude.patterns", defaultConfig.Exclude.Patterns)
	v.SetDefault("exclude.gitignore", defaultConfig.Exclude.Gitignore)
	v.SetDefault("scaffold.protected", defaultConfig.Scaffold.Protected)
	v.SetDefault("scaffold.api_prefixes", defaultConfig.Scaffold.APIPrefixes)
	v.SetDefault("scaffold.template_dir", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("verbose", false)
	v.SetDefault("force", false)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(".docfix")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("DOCFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes paths and rejects settings that would make a run unsafe
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("root is required")
	}
	c.Root = filepath.Clean(c.Root)

	if c.Extension == "" {
		return errors.New("extension is required")
	}
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}

	if strings.TrimSpace(c.BackupDir) == "" {
		return errors.New("backup_dir is required")
	}
	rootAbs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	backupAbs, err := filepath.Abs(c.BackupPath())
	if err != nil {
		return fmt.Errorf("resolving backup_dir: %w", err)
	}
	if backupAbs == rootAbs {
		return errors.New("backup_dir must not be the root directory")
	}
	if rel, err := filepath.Rel(backupAbs, rootAbs); err == nil && !strings.HasPrefix(rel, "..") {
		return errors.New("backup_dir must not contain the root directory")
	}
	if err := backup.CheckTarget(backupAbs); err != nil {
		return fmt.Errorf("backup_dir: %w", err)
	}
	return nil
}

// resolve joins p onto the root unless it is already absolute
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// BackupPath returns the backup directory resolved against the root
func (c *Config) BackupPath() string { return c.resolve(c.BackupDir) }

// LogPath returns the log summary file resolved against the root
func (c *Config) LogPath() string { return c.resolve(c.LogFile) }

// ManifestPath returns the navigation manifest resolved against the root
func (c *Config) ManifestPath() string { return c.resolve(c.Manifest) }

// OutputPath returns the scaffold output root resolved against the root
func (c *Config) OutputPath() string { return c.resolve(c.OutputDir) }

// OwnedDirs returns the absolute directories docfix itself writes into: the
// backup and the log summary's parent. They are excluded as exact subtrees.
func (c *Config) OwnedDirs() []string {
	var dirs []string
	for _, p := range []string{c.BackupPath(), logDir(c.LogPath())} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			dirs = append(dirs, abs)
		}
	}
	return dirs
}

func logDir(logPath string) string {
	if logPath == "" {
		return ""
	}
	return filepath.Dir(logPath)
}

// IgnoreOptions returns the exclusion settings for an ignore.Set anchored at Root
func (c *Config) IgnoreOptions() ignore.Options {
	return ignore.Options{
		Dirs:      c.Exclude.Dirs,
		Subtrees:  c.OwnedDirs(),
		Files:     c.Exclude.Files,
		Patterns:  c.Exclude.Patterns,
		Gitignore: c.Exclude.Gitignore,
	}
}
