package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/docfix/pkg/backup"
	"github.com/fulmenhq/docfix/pkg/exitcode"
	"github.com/fulmenhq/docfix/pkg/manifest"
	"github.com/fulmenhq/docfix/pkg/pathfinder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsDoc = "# Cards\n\n<CardGroup cols=2>\n  <Card title=\"A\" />\n</CardGroup>\n"

// execRoot runs a fresh command tree and returns stdout, stderr and the command error
func execRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRepairCommand(t *testing.T) {
	root := writeDocs(t, map[string]string{"cards.mdx": cardsDoc})

	stdout, _, err := execRoot(t, "repair", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, read(t, filepath.Join(root, "cards.mdx")), "cols={2}")
	assert.Contains(t, stdout, "repair completed")
	assert.Contains(t, stdout, "Issues fixed:   1")
	assert.Contains(t, stdout, "✓ cards.mdx (1 fixes)")
	assert.FileExists(t, filepath.Join(root, ".docfix-backup", "cards.mdx"))

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(read(t, filepath.Join(root, ".docfix", "last-run.json"))), &summary))
	assert.Contains(t, summary, "totalEntries")
	assert.Contains(t, summary, "durationMs")
	assert.Contains(t, summary, "entries")
}

func TestRepairCommandDryRunJSON(t *testing.T) {
	root := writeDocs(t, map[string]string{"cards.mdx": cardsDoc})

	stdout, _, err := execRoot(t, "repair", "--root", root, "--dry-run", "--json")
	require.NoError(t, err)

	var out struct {
		Report struct {
			DryRun bool `json:"dryRun"`
			Stats  struct {
				IssuesFixed int `json:"issuesFixed"`
			} `json:"stats"`
		} `json:"report"`
		Files []struct {
			Path  string `json:"path"`
			Fired []struct {
				Name       string `json:"name"`
				MatchCount int    `json:"matchCount"`
			} `json:"firedPatterns"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), stdout)
	assert.True(t, out.Report.DryRun)
	assert.Equal(t, 1, out.Report.Stats.IssuesFixed)
	require.Len(t, out.Files, 1)
	require.Len(t, out.Files[0].Fired, 1)
	assert.Equal(t, "unbraced-numeric-attributes", out.Files[0].Fired[0].Name)

	assert.Equal(t, cardsDoc, read(t, filepath.Join(root, "cards.mdx")))
	assert.NoDirExists(t, filepath.Join(root, ".docfix-backup"))
}

func TestRepairCommandBackupFailureExitCode(t *testing.T) {
	root := writeDocs(t, map[string]string{"cards.mdx": cardsDoc, "blocker": "file"})
	cfgPath := filepath.Join(t.TempDir(), "docfix.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backup_dir: blocker/backup\n"), 0o644))

	stdout, _, err := execRoot(t, "repair", "--root", root, "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, exitcode.BackupAborted, exitCodeFor(err))
	assert.Contains(t, stdout, "repair aborted before starting")
	assert.Equal(t, cardsDoc, read(t, filepath.Join(root, "cards.mdx")))
	assert.FileExists(t, filepath.Join(root, ".docfix", "last-run.json"))
}

func TestRepairCommandRestore(t *testing.T) {
	root := writeDocs(t, map[string]string{"cards.mdx": cardsDoc})
	_, _, err := execRoot(t, "repair", "--root", root)
	require.NoError(t, err)

	stdout, _, err := execRoot(t, "repair", "--root", root, "--restore")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Restored 1 files")
	assert.Equal(t, cardsDoc, read(t, filepath.Join(root, "cards.mdx")))
}

func TestValidateCommand(t *testing.T) {
	doc := "<A cols=1>\n<B cols=2>\n<C cols=3>\n"
	root := writeDocs(t, map[string]string{"a.mdx": doc})

	stdout, _, err := execRoot(t, "validate", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.mdx: [unbraced-numeric-attributes]")
	assert.Contains(t, stdout, "(3 occurrences)")
	assert.Contains(t, stdout, "line 1: <A cols=1>")
	assert.Contains(t, stdout, "Issues found:   3")
	assert.Equal(t, doc, read(t, filepath.Join(root, "a.mdx")))

	_, _, err = execRoot(t, "validate", "--root", root, "--strict")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationFailed, exitCodeFor(err))
}

func TestScaffoldCommand(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"nav.yaml": "navigation:\n  groups:\n    - group: Intro\n      pages: [overview]\n",
	})

	stdout, _, err := execRoot(t, "scaffold", "--root", root, "--manifest", "nav.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ created overview.mdx (basic)")
	assert.Contains(t, stdout, "Files created:  1")
	assert.Contains(t, read(t, filepath.Join(root, "overview.mdx")), "title: \"Overview\"")

	stdout, _, err = execRoot(t, "scaffold", "--root", root, "--manifest", "nav.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files created:  0")
	assert.Contains(t, stdout, "Files skipped:  1")
}

func TestScaffoldCommandOutputDir(t *testing.T) {
	root := writeDocs(t, map[string]string{
		"docs.json": `{"navigation":{"groups":[{"group":"Intro","pages":["overview"]}]}}`,
	})
	_, _, err := execRoot(t, "scaffold", "--root", root, "--output", "site")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "site", "overview.mdx"))
}

func TestScaffoldCommandMissingManifest(t *testing.T) {
	root := writeDocs(t, map[string]string{})
	stdout, _, err := execRoot(t, "scaffold", "--root", root)
	require.Error(t, err)
	assert.Equal(t, exitcode.ManifestAborted, exitCodeFor(err))
	assert.Contains(t, stdout, "scaffold aborted before starting")
}

func TestBadConfigFile(t *testing.T) {
	root := writeDocs(t, map[string]string{})
	cfgPath := filepath.Join(t.TempDir(), "docfix.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backup_dir: \"\"\n"), 0o644))

	_, _, err := execRoot(t, "validate", "--root", root, "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitCodeFor(err))
}

func TestHelpListsCommandGroups(t *testing.T) {
	stdout, _, err := execRoot(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Documentation Commands:")
	for _, name := range []string{"repair", "validate", "scaffold", "version"} {
		assert.Contains(t, stdout, "  "+name)
	}
	docs := strings.Index(stdout, "Documentation Commands:")
	support := strings.Index(stdout, "Support Commands:")
	assert.Less(t, docs, support)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execRoot(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "docfix "), stdout)

	stdout, _, err = execRoot(t, "version", "--json", "--extended")
	require.NoError(t, err)
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Contains(t, v, "version")
	assert.Contains(t, v, "moduleVersion")
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"backup", fmt.Errorf("run: %w", &backup.BackupError{Path: ".docfix-backup", Err: errors.New("disk full")}), exitcode.BackupAborted},
		{"manifest", &manifest.LoadError{Path: "docs.json", Err: os.ErrNotExist}, exitcode.ManifestAborted},
		{"discovery", &pathfinder.DiscoveryError{Path: ".", Err: os.ErrNotExist}, exitcode.FileSystemError},
		{"explicit", &exitError{code: exitcode.CompletedWithError, err: errors.New("x")}, exitcode.CompletedWithError},
		{"other", errors.New("boom"), exitcode.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}
