package fixes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicky struct{}

func (panicky) Name() string                      { return "panicky" }
func (panicky) Description() string               { return "always panics" }
func (panicky) AppliesTo(string) bool             { return true }
func (panicky) Find(string) []Match               { panic("find exploded") }
func (panicky) Apply(string) (string, int, error) { panic("apply exploded") }

type failing struct{}

func (failing) Name() string          { return "failing" }
func (failing) Description() string   { return "returns an error" }
func (failing) AppliesTo(string) bool { return true }
func (failing) Find(string) []Match   { return nil }
func (failing) Apply(text string) (string, int, error) {
	return text, 0, errors.New("cannot rewrite")
}

func TestNewLibraryRejectsDuplicateNames(t *testing.T) {
	a := newRule("same", "a", ScopeAll, stripBOM)
	b := newRule("same", "b", ScopeAll, eofNewline)
	_, err := NewLibrary(a, b)
	assert.ErrorContains(t, err, `duplicate pattern name "same"`)

	_, err = NewLibrary(nil)
	assert.Error(t, err)
}

func TestDefaultLibraryIsUniqueAndOrdered(t *testing.T) {
	lib := Default()
	names := make([]string, 0, len(lib.Patterns()))
	for _, p := range lib.Patterns() {
		names = append(names, p.Name())
	}
	assert.Equal(t, "strip-bom", names[0])
	assert.Less(t, indexOf(names, "quoted-numeric-cols"), indexOf(names, "unbraced-numeric-attributes"))
	assert.Less(t, indexOf(names, "unbraced-numeric-attributes"), indexOf(names, "unquoted-string-attributes"))
	assert.Less(t, indexOf(names, "lowercase-component-tags"), indexOf(names, "self-close-empty-components"))
	assert.Less(t, indexOf(names, "lowercase-component-tags"), indexOf(names, "codegroup-title-attribute"))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestLibraryRecoversPanics(t *testing.T) {
	lib, err := NewLibrary(newRule("eof-newline", "eof", ScopeAll, eofNewline), panicky{})
	require.NoError(t, err)

	_, err = lib.Apply("docs/a.mdx", "text")
	var perr *PatternError
	require.True(t, errors.As(err, &perr), "expected PatternError, got %v", err)
	assert.Equal(t, "panicky", perr.Pattern)
	assert.Equal(t, "docs/a.mdx", perr.Path)
	assert.ErrorIs(t, err, ErrPanic)

	_, err = lib.Find("docs/a.mdx", "text")
	assert.ErrorIs(t, err, ErrPanic)
}

func TestLibraryReportsPatternErrors(t *testing.T) {
	lib, err := NewLibrary(failing{})
	require.NoError(t, err)

	_, err = lib.Apply("a.mdx", "x")
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "failing", perr.Pattern)
	assert.EqualError(t, perr.Err, "cannot rewrite")
}

func TestParseTagRoundTrip(t *testing.T) {
	inputs := []string{
		`<Card>`,
		`<Card/>`,
		`<Card title="A" />`,
		"<Card\n  title='A'\n  href=/x\n  {...props}\n  icon={<Icon name=\"x\" />}\n>",
		`<Tab title="a > b" disabled>`,
		`<ParamField query="id" type="string" required />`,
		`<Code value={"}"} />`,
	}
	for _, in := range inputs {
		tg, end, ok := parseTag(in, 0)
		require.True(t, ok, in)
		assert.Equal(t, len(in), end, in)
		assert.Equal(t, in, tg.render())
	}
}

func TestParseTagRejects(t *testing.T) {
	for _, in := range []string{
		"< Card>",
		"<5>",
		"a <b c",
		"<https://example.com>",
		`<Card title="unterminated>`,
		`<Card a="x"b="y">`,
	} {
		t.Run(in, func(t *testing.T) {
			start := 0
			for start < len(in) && in[start] != '<' {
				start++
			}
			_, _, ok := parseTag(in, start)
			assert.False(t, ok)
		})
	}
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "body", ScopeBody.String())
	assert.Equal(t, "frontmatter", ScopeFrontMatter.String())
	assert.Equal(t, "all", ScopeAll.String())
}
