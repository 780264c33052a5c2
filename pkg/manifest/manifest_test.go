package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"json top-level groups", ".json", `{"groups":[{"group":"Intro","pages":["overview",{"group":"Setup","pages":["setup/install"]}]}]}`},
		{"json navigation object", ".json", `{"name":"x","navigation":{"groups":[{"group":"Intro","pages":["overview",{"group":"Setup","pages":["setup/install"]}]}]}}`},
		{"json navigation array", ".json", `{"navigation":[{"group":"Intro","pages":["overview",{"group":"Setup","pages":["/setup/install"]}]}]}`},
		{"yaml", ".yaml", "groups:\n  - group: Intro\n    pages:\n      - overview\n      - group: Setup\n        pages: [setup/install]\n"},
		{"toml", ".toml", "[[groups]]\ngroup = \"Intro\"\npages = [\"overview\", { group = \"Setup\", pages = [\"setup/install\"] }]\n"},
	}

	want := []Entry{
		{Path: "overview", Breadcrumb: []string{"Intro"}},
		{Path: "setup/install", Breadcrumb: []string{"Intro", "Setup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, want, m.Flatten())
		})
	}
}

func TestParseRejectsBadShape(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no groups", `{"pages":["a"]}`},
		{"groups not array", `{"groups":{"group":"a"}}`},
		{"missing pages", `{"groups":[{"group":"Intro"}]}`},
		{"empty group name", `{"groups":[{"group":"","pages":[]}]}`},
		{"numeric page", `{"groups":[{"group":"Intro","pages":[3]}]}`},
		{"top-level array", `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), ".json")
			var lerr *LoadError
			require.True(t, errors.As(err, &lerr), "expected LoadError, got %v", err)
			assert.ErrorIs(t, err, ErrShape)
			assert.NotEmpty(t, lerr.Problems)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "docs.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"groups":[{"group":"Intro","pages":["overview"]}]}`), 0o644))

	m, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, p, m.Source)
	require.Len(t, m.Groups, 1)
	assert.Equal(t, "Intro", m.Groups[0].Name)
	assert.Equal(t, "overview", m.Groups[0].Pages[0].Path)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("groups: [\n"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, bad, lerr.Path)

	ini := filepath.Join(dir, "docs.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o644))
	_, err = Load(ini)
	assert.ErrorContains(t, err, "unsupported manifest format")
}

func TestFlattenKeepsDuplicates(t *testing.T) {
	m, err := Parse([]byte(`{"groups":[{"group":"A","pages":["x"]},{"group":"B","pages":["x"]}]}`), ".json")
	require.NoError(t, err)
	assert.Len(t, m.Flatten(), 2)
}
