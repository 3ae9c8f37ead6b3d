package kb

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Drop whole script/style blocks before stripping tags.
	scriptStyleRE = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	// Block-level closers become line breaks so paragraphs stay separated.
	blockBreakRE = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr|table|blockquote)>|<br\s*/?>`)
	tagRE        = regexp.MustCompile(`<[^>]*>`)
	blankRunRE   = regexp.MustCompile(`\n{3,}`)
)

// StripHTML flattens an HTML fragment to plain text: script/style blocks are
// removed, block boundaries become newlines, remaining tags are dropped, and
// entities are unescaped. Whitespace is collapsed per line.
func StripHTML(s string) string {
	s = scriptStyleRE.ReplaceAllString(s, "")
	s = blockBreakRE.ReplaceAllString(s, "\n")
	s = tagRE.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		fields := strings.Fields(ln)
		if len(fields) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	s = strings.Join(out, "\n")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
