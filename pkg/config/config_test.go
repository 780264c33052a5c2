package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/docfix/pkg/ignore"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty $HOME so no
// stray .docfix file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, ".mdx", cfg.Extension)
	assert.Equal(t, ".docfix-backup", cfg.BackupDir)
	assert.Contains(t, cfg.Exclude.Dirs, "node_modules")
	assert.Contains(t, cfg.Scaffold.APIPrefixes, "api-reference/")
	assert.False(t, cfg.DryRun)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "docfix.yaml")
	content := "root: docs\nextension: md\nexclude:\n  dirs: [drafts]\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := Load(LoadOptions{File: file})
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Root)
	assert.Equal(t, ".md", cfg.Extension, "extension should be normalized with a leading dot")
	assert.Equal(t, []string{"drafts"}, cfg.Exclude.Dirs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoadFlagsOverride(t *testing.T) {
	isolate(t)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("root", ".", "")
	flags.Bool("dry-run", false, "")
	flags.Bool("force", false, "")
	require.NoError(t, flags.Parse([]string{"--root", "content", "--dry-run"}))

	cfg, err := Load(LoadOptions{Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "content", cfg.Root)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.Force)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DOCFIX_BACKUP_DIR", "snapshots")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "snapshots", cfg.BackupDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty root", mutate: func(c *Config) { c.Root = " " }, wantErr: true},
		{name: "empty extension", mutate: func(c *Config) { c.Extension = "" }, wantErr: true},
		{name: "backup is root", mutate: func(c *Config) { c.BackupDir = "." }, wantErr: true},
		{name: "backup contains root", mutate: func(c *Config) { c.Root = "site/docs"; c.BackupDir = ".." }, wantErr: true},
		{name: "absolute backup elsewhere", mutate: func(c *Config) { c.BackupDir = filepath.Join(os.TempDir(), "docfix-bak") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvedPaths(t *testing.T) {
	c := Default()
	c.Root = "docs"

	assert.Equal(t, filepath.Join("docs", ".docfix-backup"), c.BackupPath())
	assert.Equal(t, filepath.Join("docs", ".docfix", "last-run.json"), c.LogPath())
	assert.Equal(t, filepath.Join("docs", "docs.json"), c.ManifestPath())
	assert.Equal(t, "docs", c.OutputPath())

	c.LogFile = "/var/log/docfix.json"
	assert.Equal(t, "/var/log/docfix.json", c.LogPath())
}

func TestOwnedDirsAreExactSubtrees(t *testing.T) {
	root := t.TempDir()
	c := Default()
	c.Root = root
	c.Exclude.Dirs = []string{"node_modules"}
	c.BackupDir = "guides/.bak"
	c.LogFile = filepath.Join(root, "logs", "run.json")

	assert.Equal(t, []string{filepath.Join(root, "guides", ".bak"), filepath.Join(root, "logs")}, c.OwnedDirs())

	opts := c.IgnoreOptions()
	assert.Equal(t, []string{"node_modules"}, opts.Dirs)
	set, err := ignore.New(root, opts)
	require.NoError(t, err)
	assert.True(t, set.ExcludesDir("guides/.bak"))
	assert.True(t, set.ExcludesDir("logs"))
	assert.False(t, set.ExcludesDir("guides"))
	assert.False(t, set.ExcludesDir("other/guides"))
	assert.False(t, set.ExcludesDir("other/logs"))
}

func TestOwnedDirsSkipsRootLevelLog(t *testing.T) {
	root := t.TempDir()
	c := Default()
	c.Root = root
	c.LogFile = "last-run.json"

	set, err := ignore.New(root, c.IgnoreOptions())
	require.NoError(t, err)
	assert.False(t, set.ExcludesFile("intro.mdx"))
}

func TestValidateRefusesForeignBackupDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "keep.mdx"), []byte("# Keep\n"), 0o644))

	c := Default()
	c.Root = root
	c.BackupDir = "docs"
	assert.Error(t, c.Validate())

	c.BackupDir = "fresh-backup"
	assert.NoError(t, c.Validate())
}

func TestDefaultIsACopy(t *testing.T) {
	a := Default()
	a.Exclude.Dirs[0] = "changed"
	b := Default()
	assert.NotEqual(t, "changed", b.Exclude.Dirs[0])
}
