// Package frontmatter locates and renders the leading metadata block
// of a document: "key: value" YAML lines between two "---" delimiter lines.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a front-matter block
const Delimiter = "---"

// Block is the position of a front-matter block within a document
type Block struct {
	// Inner spans the YAML between the delimiter lines.
	InnerStart int
	InnerEnd   int
	// End is the offset just past the closing delimiter line.
	End int
}

// Locate finds a front-matter block at the very start of text. A block
// must open on the first line and be closed by a "---" or "..." line.
func Locate(text string) (Block, bool) {
	first, _, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != Delimiter {
		return Block{}, false
	}
	start := len(first) + 1
	for offset := start; offset <= len(text); {
		line := text[offset:]
		nl := strings.IndexByte(line, '\n')
		if nl >= 0 {
			line = line[:nl]
		}
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == Delimiter || trimmed == "..." {
			end := offset + len(line)
			if nl >= 0 {
				end++
			}
			return Block{InnerStart: start, InnerEnd: offset, End: end}, true
		}
		if nl < 0 {
			break
		}
		offset += nl + 1
	}
	return Block{}, false
}

// Field is one ordered front-matter entry
type Field struct {
	Key   string
	Value string
}

// Render produces a complete front-matter block, delimiters included, with
// every value double-quoted so titles containing ':' or '#' stay valid YAML.
func Render(fields []Field) (string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		if f.Key == "" {
			return "", fmt.Errorf("front-matter field with empty key")
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Value, Style: yaml.DoubleQuotedStyle},
		)
	}

	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	if len(fields) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return "", fmt.Errorf("encoding front-matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encoding front-matter: %w", err)
		}
	}
	buf.WriteString(Delimiter + "\n")
	return buf.String(), nil
}
