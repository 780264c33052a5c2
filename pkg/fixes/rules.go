package fixes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fulmenhq/docfix/pkg/format/finalizer"
)

// Default returns the built-in library. Narrow rules run before broad ones
// that could see the same text, and no rule's output matches any rule, so a
// second pass over repaired text changes nothing.
func Default() *Library {
	lib, err := NewLibrary(
		newRule("strip-bom", "Remove the leading byte order mark", ScopeAll, stripBOM),
		newRule("normalize-line-endings", "Convert CRLF and CR line breaks to LF", ScopeAll, normalizeLineEndings),
		newRule("html-comments", "Replace HTML comments with JSX comments", ScopeBody, htmlComments),
		newRule("unclosed-void-tags", "Self-close HTML void elements such as <br> and <img>", ScopeBody, unclosedVoidTags),
		newRule("class-to-classname", "Rename class attributes to className", ScopeBody, classToClassName),
		newRule("style-string-to-object", "Convert inline style strings to style objects", ScopeBody, styleStringToObject),
		newRule("lowercase-component-tags", "Restore the capitalized name of known components", ScopeBody, lowercaseComponentTags),
		newRule("quoted-numeric-cols", "Pass the cols attribute as a number rather than a string", ScopeBody, quotedNumericCols),
		newRule("unbraced-numeric-attributes", "Wrap bare numeric attribute values in braces", ScopeBody, unbracedNumericAttributes),
		newRule("unbraced-boolean-attributes", "Wrap bare boolean attribute values in braces", ScopeBody, unbracedBooleanAttributes),
		newRule("unquoted-string-attributes", "Quote bare string attribute values", ScopeBody, unquotedStringAttributes),
		newRule("self-close-empty-components", "Self-close components that have no children", ScopeBody, selfCloseEmptyComponents),
		newRule("frontmatter-quote-colons", "Quote front-matter values that contain a colon", ScopeFrontMatter, quoteFrontMatterColons),
		newRule("eof-newline", "End the file with exactly one newline", ScopeAll, eofNewline),
		newRule("steps-title-attribute", "Steps take a title attribute, not name", ScopeBody, stepsTitleAttribute,
			"installation.mdx", "getting-started.mdx"),
		newRule("codegroup-title-attribute", "Code blocks in a CodeGroup carry their title in the info string", ScopeAll, codeGroupTitles,
			"code-examples.mdx", "quickstart.mdx"),
	)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in fix library: %v", err))
	}
	return lib
}

func stripBOM(text string) (string, []hit) {
	out, n := finalizer.RemoveUTF8BOM(text)
	if n == 0 {
		return text, nil
	}
	return out, []hit{{offset: 0, text: "\\uFEFF"}}
}

func normalizeLineEndings(text string) (string, []hit) {
	out, n := finalizer.NormalizeLineEndings(text)
	if n == 0 {
		return text, nil
	}
	hits := make([]hit, 0, n)
	for i := 0; i < len(text); i++ {
		if text[i] != '\r' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '\n' {
			hits = append(hits, hit{offset: i, text: `\r\n`})
		} else {
			hits = append(hits, hit{offset: i, text: `\r`})
		}
	}
	return out, hits
}

func eofNewline(text string) (string, []hit) {
	out, n := finalizer.EnsureSingleTrailingNewline(text)
	if n == 0 {
		return text, nil
	}
	at := len(strings.TrimRight(text, "\n"))
	return out, []hit{{offset: at, text: strconv.Quote(text[at:])}}
}

// regexRewrite replaces every match whose replacement differs from the match
func regexRewrite(re *regexp.Regexp, replace func(groups []string) string) rewriteFunc {
	return func(region string) (string, []hit) {
		var (
			b    strings.Builder
			hits []hit
			last int
		)
		for _, loc := range re.FindAllStringSubmatchIndex(region, -1) {
			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = region[loc[2*i]:loc[2*i+1]]
				}
			}
			repl := replace(groups)
			if repl == groups[0] {
				continue
			}
			b.WriteString(region[last:loc[0]])
			b.WriteString(repl)
			last = loc[1]
			hits = append(hits, hit{offset: loc[0], text: groups[0]})
		}
		if len(hits) == 0 {
			return region, nil
		}
		b.WriteString(region[last:])
		return b.String(), hits
	}
}

var htmlCommentRe = regexp.MustCompile(`(?s)<!--(.*?)-->`)

var htmlComments = regexRewrite(htmlCommentRe, func(g []string) string {
	return "{/*" + strings.ReplaceAll(g[1], "*/", "* /") + "*/}"
})

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

var unclosedVoidTags = scanTags(func(t *tag, _ string) (int, int) {
	if t.selfClosing || !voidElements[t.name] {
		return 0, 0
	}
	t.closeSelf()
	return 1, 0
})

var classToClassName = eachAttr(nil, func(_ *tag, a *attr) bool {
	if a.name != "class" {
		return false
	}
	a.name = "className"
	return true
})

var styleStringToObject = eachAttr(nil, func(_ *tag, a *attr) bool {
	if a.name != "style" {
		return false
	}
	css, ok := a.quoted()
	if !ok {
		return false
	}
	obj, ok := cssToObject(css)
	if !ok {
		return false
	}
	a.value = "{" + obj + "}"
	return true
})

// cssToObject converts "font-size: 12px; color: red" to {fontSize: "12px", color: "red"}
func cssToObject(css string) (string, bool) {
	var props []string
	for _, decl := range strings.Split(css, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			return "", false
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" {
			return "", false
		}
		key := camelCase(name)
		if strings.HasPrefix(name, "--") {
			key = strconv.Quote(name)
		}
		props = append(props, key+": "+strconv.Quote(value))
	}
	if len(props) == 0 {
		return "", false
	}
	return "{" + strings.Join(props, ", ") + "}", true
}

func camelCase(prop string) string {
	parts := strings.Split(strings.ToLower(prop), "-")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

// knownComponents maps the lowercased name of each component to its canonical spelling
var knownComponents = func() map[string]string {
	m := map[string]string{}
	for _, name := range []string{
		"Accordion", "AccordionGroup", "Callout", "Card", "CardGroup", "Check",
		"CodeGroup", "Columns", "Expandable", "Icon", "Info", "Note",
		"ParamField", "RequestExample", "ResponseExample", "ResponseField",
		"Step", "Steps", "Tab", "Tabs", "Tip", "Tooltip", "Update", "Warning",
	} {
		m[strings.ToLower(name)] = name
	}
	return m
}()

func canonicalComponent(name string) (string, bool) {
	canon, ok := knownComponents[strings.ToLower(name)]
	if !ok || canon == name {
		return "", false
	}
	return canon, true
}

var closingTagRe = regexp.MustCompile(`</([A-Za-z][A-Za-z0-9]*)(\s*)>`)

var lowercaseComponentTags = chain(
	scanTags(func(t *tag, _ string) (int, int) {
		canon, ok := canonicalComponent(t.name)
		if !ok {
			return 0, 0
		}
		t.name = canon
		return 1, 0
	}),
	regexRewrite(closingTagRe, func(g []string) string {
		canon, ok := canonicalComponent(g[1])
		if !ok {
			return g[0]
		}
		return "</" + canon + g[2] + ">"
	}),
)

var (
	numericRe = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	booleanRe = regexp.MustCompile(`^(true|false)$`)
)

var quotedNumericCols = eachAttr((*tag).component, func(_ *tag, a *attr) bool {
	if a.name != "cols" {
		return false
	}
	v, ok := a.quoted()
	if !ok || !numericRe.MatchString(v) {
		return false
	}
	a.value = "{" + v + "}"
	return true
})

var unbracedNumericAttributes = eachAttr(nil, func(_ *tag, a *attr) bool {
	if !a.bare() || !numericRe.MatchString(a.value) {
		return false
	}
	a.value = "{" + a.value + "}"
	return true
})

var unbracedBooleanAttributes = eachAttr(nil, func(_ *tag, a *attr) bool {
	if !a.bare() || !booleanRe.MatchString(a.value) {
		return false
	}
	a.value = "{" + a.value + "}"
	return true
})

var unquotedStringAttributes = eachAttr(nil, func(_ *tag, a *attr) bool {
	if !a.bare() || numericRe.MatchString(a.value) || booleanRe.MatchString(a.value) {
		return false
	}
	a.value = `"` + a.value + `"`
	return true
})

var selfCloseEmptyComponents = scanTags(func(t *tag, after string) (int, int) {
	if t.selfClosing || !t.component() {
		return 0, 0
	}
	rest := strings.TrimLeft(after, " \t")
	closing := "</" + t.name + ">"
	if !strings.HasPrefix(rest, closing) {
		return 0, 0
	}
	t.closeSelf()
	return 1, len(after) - len(rest) + len(closing)
})

var frontMatterLineRe = regexp.MustCompile(`(?m)^([A-Za-z0-9_-]+):[ \t]+(.*?)[ \t]*$`)

var quoteFrontMatterColons = regexRewrite(frontMatterLineRe, func(g []string) string {
	value := g[2]
	if value == "" || strings.ContainsAny(value[:1], `"'[{|>&*!`) {
		return g[0]
	}
	if !strings.Contains(value, ": ") && !strings.HasSuffix(value, ":") {
		return g[0]
	}
	return g[1] + ": " + strconv.Quote(value)
})

var stepsTitleAttribute = scanTags(func(t *tag, _ string) (int, int) {
	if t.name != "Step" || t.attr("title") != nil {
		return 0, 0
	}
	a := t.attr("name")
	if a == nil {
		return 0, 0
	}
	a.name = "title"
	return 1, 0
})

var (
	codeGroupRe  = regexp.MustCompile(`(?s)<CodeGroup\b[^>]*>.*?</CodeGroup>`)
	fenceTitleRe = regexp.MustCompile("(?m)^([ \\t]*)(```+|~~~+)([A-Za-z0-9_+#.-]+)[ \\t]+title=(?:\"([^\"]*)\"|'([^']*)')[ \\t]*$")
)

func codeGroupTitles(text string) (string, []hit) {
	var (
		b    strings.Builder
		hits []hit
		last int
	)
	for _, loc := range codeGroupRe.FindAllStringIndex(text, -1) {
		group := text[loc[0]:loc[1]]
		out, found := regexRewrite(fenceTitleRe, func(g []string) string {
			title := g[4]
			if title == "" {
				title = g[5]
			}
			if strings.TrimSpace(title) == "" {
				return g[0]
			}
			return g[1] + g[2] + g[3] + " " + title
		})(group)
		if len(found) == 0 {
			continue
		}
		for _, h := range found {
			h.offset += loc[0]
			hits = append(hits, h)
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(out)
		last = loc[1]
	}
	if len(hits) == 0 {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), hits
}
