package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		ok    bool
		inner string
		body  string
	}{
		{name: "simple", text: "---\ntitle: A\n---\nbody\n", ok: true, inner: "title: A\n", body: "body\n"},
		{name: "empty block", text: "---\n---\nbody", ok: true, inner: "", body: "body"},
		{name: "dots terminator", text: "---\na: 1\n...\nrest", ok: true, inner: "a: 1\n", body: "rest"},
		{name: "no trailing newline", text: "---\na: 1\n---", ok: true, inner: "a: 1\n", body: ""},
		{name: "crlf", text: "---\r\na: 1\r\n---\r\nx", ok: true, inner: "a: 1\r\n", body: "x"},
		{name: "no block", text: "# Title\n---\n", ok: false, body: "# Title\n---\n"},
		{name: "unclosed", text: "---\na: 1\n", ok: false, body: "---\na: 1\n"},
		{name: "empty", text: "", ok: false, body: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Locate(tt.text)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, Block{}, b)
				return
			}
			assert.Equal(t, tt.inner, tt.text[b.InnerStart:b.InnerEnd])
			assert.Equal(t, tt.body, tt.text[b.End:])
		})
	}
}

func TestRender(t *testing.T) {
	out, err := Render([]Field{
		{Key: "title", Value: "Overview"},
		{Key: "description", Value: "Intro: the basics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: \"Overview\"\ndescription: \"Intro: the basics\"\n---\n", out)

	b, ok := Locate(out)
	require.True(t, ok)
	m := map[string]any{}
	require.NoError(t, yaml.Unmarshal([]byte(out[b.InnerStart:b.InnerEnd]), &m))
	assert.Equal(t, "Intro: the basics", m["description"])
}

func TestRenderRejectsEmptyKey(t *testing.T) {
	_, err := Render([]Field{{Key: "", Value: "x"}})
	assert.Error(t, err)
}
