package fixes

import (
	"strings"
)

// attr is one attribute of an opening tag. An empty name is a spread
// attribute such as {...props}, whose value holds the braces.
type attr struct {
	lead     string
	name     string
	value    string
	hasValue bool
}

// bare reports whether the value is present and neither quoted nor braced
func (a attr) bare() bool {
	if !a.hasValue || a.value == "" {
		return false
	}
	switch a.value[0] {
	case '"', '\'', '{':
		return false
	}
	return true
}

// quoted returns the inner text of a quoted value
func (a attr) quoted() (string, bool) {
	if !a.hasValue || len(a.value) < 2 {
		return "", false
	}
	q := a.value[0]
	if (q != '"' && q != '\'') || a.value[len(a.value)-1] != q {
		return "", false
	}
	return a.value[1 : len(a.value)-1], true
}

// tag is a lexed opening tag. render reproduces the source exactly until a
// field is changed.
type tag struct {
	name        string
	attrs       []attr
	trail       string
	selfClosing bool
}

func (t *tag) component() bool {
	return t.name != "" && t.name[0] >= 'A' && t.name[0] <= 'Z'
}

func (t *tag) attr(name string) *attr {
	for i := range t.attrs {
		if t.attrs[i].name == name {
			return &t.attrs[i]
		}
	}
	return nil
}

func (t *tag) render() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.name)
	for _, a := range t.attrs {
		b.WriteString(a.lead)
		b.WriteString(a.name)
		if a.hasValue {
			if a.name != "" {
				b.WriteByte('=')
			}
			b.WriteString(a.value)
		}
	}
	b.WriteString(t.trail)
	if t.selfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

// closeSelf turns the tag into its self-closing form with a space before "/>"
func (t *tag) closeSelf() {
	t.selfClosing = true
	if t.trail == "" {
		t.trail = " "
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '_' || c == ':'
}

func isAttrNameByte(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':'
}

// parseTag lexes an opening tag starting at s[i] == '<'. It returns the tag
// and the offset just past it, or false for anything it cannot reproduce.
func parseTag(s string, i int) (*tag, int, bool) {
	j := i + 1
	if j >= len(s) || !isLetter(s[j]) {
		return nil, 0, false
	}
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	t := &tag{name: s[i+1 : j]}

	for {
		ws := j
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		lead := s[ws:j]
		if j >= len(s) {
			return nil, 0, false
		}
		if s[j] == '>' {
			t.trail = lead
			return t, j + 1, true
		}
		if strings.HasPrefix(s[j:], "/>") {
			t.trail = lead
			t.selfClosing = true
			return t, j + 2, true
		}
		if lead == "" {
			return nil, 0, false
		}

		if s[j] == '{' {
			end, ok := scanBraces(s, j)
			if !ok {
				return nil, 0, false
			}
			t.attrs = append(t.attrs, attr{lead: lead, value: s[j:end], hasValue: true})
			j = end
			continue
		}

		ns := j
		for j < len(s) && isAttrNameByte(s[j]) {
			j++
		}
		if j == ns {
			return nil, 0, false
		}
		a := attr{lead: lead, name: s[ns:j]}
		if j < len(s) && s[j] == '=' {
			end, ok := scanValue(s, j+1)
			if !ok {
				return nil, 0, false
			}
			a.value = s[j+1 : end]
			a.hasValue = true
			j = end
		}
		t.attrs = append(t.attrs, a)
	}
}

// scanValue returns the end offset of an attribute value starting at s[i]
func scanValue(s string, i int) (int, bool) {
	if i >= len(s) {
		return 0, false
	}
	switch s[i] {
	case '"', '\'':
		end := strings.IndexByte(s[i+1:], s[i])
		if end < 0 {
			return 0, false
		}
		return i + 1 + end + 1, true
	case '{':
		return scanBraces(s, i)
	}
	j := i
	for j < len(s) {
		c := s[j]
		if isSpace(c) || c == '>' || c == '<' || c == '"' || c == '\'' || c == '`' || c == '=' || c == '{' || c == '}' {
			break
		}
		if c == '/' && j+1 < len(s) && s[j+1] == '>' {
			break
		}
		j++
	}
	if j == i {
		return 0, false
	}
	return j, true
}

// scanBraces returns the offset just past the brace group opening at s[i],
// skipping over string literals inside it.
func scanBraces(s string, i int) (int, bool) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch c := s[j]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1, true
			}
		case '"', '\'', '`':
			end := strings.IndexByte(s[j+1:], c)
			if end < 0 {
				return 0, false
			}
			j += end + 1
		}
	}
	return 0, false
}

// tagVisitor inspects an opening tag and the text following it. It returns
// how many fixes it made to t and how many bytes of after it consumed.
type tagVisitor func(t *tag, after string) (fixes, consumed int)

func scanTags(visit tagVisitor) rewriteFunc {
	return func(region string) (string, []hit) {
		var (
			b    strings.Builder
			hits []hit
			last int
		)
		for i := 0; i < len(region); {
			if region[i] != '<' {
				i++
				continue
			}
			t, end, ok := parseTag(region, i)
			if !ok {
				i++
				continue
			}
			n, consumed := visit(t, region[end:])
			if n == 0 {
				i = end
				continue
			}
			original := region[i : end+consumed]
			b.WriteString(region[last:i])
			b.WriteString(t.render())
			last = end + consumed
			for k := 0; k < n; k++ {
				hits = append(hits, hit{offset: i, text: original})
			}
			i = last
		}
		if len(hits) == 0 {
			return region, nil
		}
		b.WriteString(region[last:])
		return b.String(), hits
	}
}

// eachAttr visits every attribute of every opening tag accepted by match
func eachAttr(match func(t *tag) bool, fix func(t *tag, a *attr) bool) rewriteFunc {
	return scanTags(func(t *tag, _ string) (int, int) {
		if match != nil && !match(t) {
			return 0, 0
		}
		n := 0
		for i := range t.attrs {
			if fix(t, &t.attrs[i]) {
				n++
			}
		}
		return n, 0
	})
}
