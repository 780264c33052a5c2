/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package finalizer

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var boms = []struct {
	encoding string
	mark     []byte
}{
	{"UTF-32BE", []byte{0x00, 0x00, 0xFE, 0xFF}},
	{"UTF-32LE", []byte{0xFF, 0xFE, 0x00, 0x00}},
	{"UTF-8", []byte{0xEF, 0xBB, 0xBF}},
	{"UTF-16BE", []byte{0xFE, 0xFF}},
	{"UTF-16LE", []byte{0xFF, 0xFE}},
}

// bomInfo returns the encoding and size of a leading byte order mark
func bomInfo(input []byte) (encoding string, bomSize int, found bool) {
	for _, b := range boms {
		if bytes.HasPrefix(input, b.mark) {
			return b.encoding, len(b.mark), true
		}
	}
	return "", 0, false
}

// RemoveUTF8BOM strips every leading UTF-8 byte order mark. A run of repeated
// marks counts as a single fix.
func RemoveUTF8BOM(text string) (string, int) {
	out := strings.TrimLeft(text, "\uFEFF")
	if len(out) == len(text) {
		return text, 0
	}
	return out, 1
}

// countLineEndingFixes reports how many CRLF or bare CR line breaks would be rewritten
func countLineEndingFixes(text string) int {
	crlf := strings.Count(text, "\r\n")
	return crlf + (strings.Count(text, "\r") - crlf)
}

// NormalizeLineEndings converts CRLF and bare CR line breaks to LF
func NormalizeLineEndings(text string) (string, int) {
	n := countLineEndingFixes(text)
	if n == 0 {
		return text, 0
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, n
}

// EnsureSingleTrailingNewline collapses trailing blank lines so the content
// ends with exactly one LF. Empty content is left alone.
func EnsureSingleTrailingNewline(text string) (string, int) {
	if text == "" {
		return text, 0
	}
	trimmed := strings.TrimRight(text, "\n")
	if trimmed == "" {
		return text, 0
	}
	out := trimmed + "\n"
	if out == text {
		return text, 0
	}
	return out, 1
}

// isTextFile performs a heuristic check to determine if content is likely text
func isTextFile(content []byte) bool {
	if len(content) == 0 {
		return true
	}
	if bytes.Contains(content, []byte{0}) {
		return false
	}
	return utf8.Valid(content)
}

// IsProcessableText reports whether content is UTF-8 text the fix library may rewrite.
// A leading UTF-8 BOM is tolerated; UTF-16 and UTF-32 documents are not processable.
func IsProcessableText(content []byte) bool {
	if enc, size, found := bomInfo(content); found {
		if enc != "UTF-8" {
			return false
		}
		content = content[size:]
	}
	return isTextFile(content)
}
