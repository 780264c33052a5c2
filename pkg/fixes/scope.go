package fixes

import (
	"strings"

	"github.com/fulmenhq/docfix/pkg/frontmatter"
)

// Scope selects the part of a document a pattern may rewrite
type Scope int

const (
	// ScopeAll is the whole document, byte for byte.
	ScopeAll Scope = iota
	// ScopeBody is prose after the front-matter, excluding fenced code,
	// inline code spans and {/* */} comments.
	ScopeBody
	// ScopeFrontMatter is the YAML between the front-matter delimiters.
	ScopeFrontMatter
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeBody:
		return "body"
	case ScopeFrontMatter:
		return "frontmatter"
	default:
		return "unknown"
	}
}

type span struct {
	start, end int
}

func regions(text string, scope Scope) []span {
	switch scope {
	case ScopeAll:
		return []span{{0, len(text)}}
	case ScopeFrontMatter:
		b, ok := frontmatter.Locate(text)
		if !ok || b.InnerEnd == b.InnerStart {
			return nil
		}
		return []span{{b.InnerStart, b.InnerEnd}}
	}

	from := 0
	if b, ok := frontmatter.Locate(text); ok {
		from = b.End
	}
	var out []span
	for _, sp := range outsideFences(text, from) {
		out = append(out, outsideInline(text, sp)...)
	}
	return out
}

// outsideFences splits text[from:] around fenced code blocks. Fences may be
// indented, as they are when nested inside components. An unclosed fence
// runs to the end of the document.
func outsideFences(text string, from int) []span {
	var (
		out      []span
		segStart = from
		fence    string
	)
	for pos := from; pos < len(text); {
		next := len(text)
		if nl := strings.IndexByte(text[pos:], '\n'); nl >= 0 {
			next = pos + nl + 1
		}
		line := strings.TrimLeft(strings.TrimRight(text[pos:next], "\r\n"), " \t")
		if fence == "" {
			if m := fenceMarker(line); m != "" {
				if pos > segStart {
					out = append(out, span{segStart, pos})
				}
				fence = m
			}
		} else if closesFence(line, fence) {
			fence = ""
			segStart = next
		}
		pos = next
	}
	if fence == "" && segStart < len(text) {
		out = append(out, span{segStart, len(text)})
	}
	return out
}

func fenceMarker(line string) string {
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(line) && line[n] == c {
			n++
		}
		if n < 3 {
			continue
		}
		// ```x``` on one line is inline code, not a fence
		if c == '`' && strings.IndexByte(line[n:], '`') >= 0 {
			return ""
		}
		return line[:n]
	}
	return ""
}

func closesFence(line, open string) bool {
	line = strings.TrimRight(line, " \t")
	if len(line) < len(open) {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != open[0] {
			return false
		}
	}
	return true
}

// outsideInline splits sp around inline code spans and JSX comments.
// A code span must close on the line it opens.
func outsideInline(text string, sp span) []span {
	var out []span
	segStart := sp.start
	cut := func(from, to int) {
		if from > segStart {
			out = append(out, span{segStart, from})
		}
		segStart = to
	}
	for i := sp.start; i < sp.end; {
		switch {
		case text[i] == '`':
			n := runLength(text, i, sp.end, '`')
			lineEnd := sp.end
			if nl := strings.IndexByte(text[i+n:sp.end], '\n'); nl >= 0 {
				lineEnd = i + n + nl
			}
			closeAt := findRun(text, i+n, lineEnd, '`', n)
			if closeAt < 0 {
				i += n
				continue
			}
			cut(i, closeAt+n)
			i = closeAt + n
		case strings.HasPrefix(text[i:sp.end], "{/*"):
			j := strings.Index(text[i+3:sp.end], "*/}")
			if j < 0 {
				i += 3
				continue
			}
			end := i + 3 + j + 3
			cut(i, end)
			i = end
		default:
			i++
		}
	}
	if segStart < sp.end {
		out = append(out, span{segStart, sp.end})
	}
	return out
}

func runLength(text string, i, limit int, c byte) int {
	n := 0
	for i+n < limit && text[i+n] == c {
		n++
	}
	return n
}

// findRun returns the offset of the first run of exactly n c bytes in text[from:limit]
func findRun(text string, from, limit int, c byte, n int) int {
	for i := from; i < limit; {
		if text[i] != c {
			i++
			continue
		}
		run := runLength(text, i, limit, c)
		if run == n {
			return i
		}
		i += run
	}
	return -1
}
