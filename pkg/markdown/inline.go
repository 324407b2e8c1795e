package markdown

import (
	"regexp"
	"strings"
)

// InlineKind is the formatting of an inline node.
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineStrong
	InlineEmphasis
	InlineCode
)

func (k InlineKind) String() string {
	switch k {
	case InlineStrong:
		return "strong"
	case InlineEmphasis:
		return "emphasis"
	case InlineCode:
		return "code"
	default:
		return "text"
	}
}

// Inline is a run of text with a single formatting.
type Inline struct {
	Kind InlineKind
	Text string
}

// inlinePass replaces every match of pattern with a node of kind.
type inlinePass struct {
	kind    InlineKind
	pattern *regexp.Regexp
}

// Order matters: bold must run before italic so "**" is not read as two "*".
var inlinePasses = []inlinePass{
	{InlineStrong, regexp.MustCompile(`\*\*(.+?)\*\*`)},
	{InlineEmphasis, regexp.MustCompile(`\*(.+?)\*`)},
	{InlineCode, regexp.MustCompile("`([^`]+)`")},
}

// ParseInline splits text into formatted inline nodes.
func ParseInline(text string) []Inline {
	if text == "" {
		return nil
	}
	nodes := []Inline{{Kind: InlineText, Text: text}}
	for _, pass := range inlinePasses {
		nodes = pass.apply(nodes)
	}
	return nodes
}

func (p inlinePass) apply(nodes []Inline) []Inline {
	out := make([]Inline, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != InlineText {
			out = append(out, n)
			continue
		}
		out = append(out, p.split(n.Text)...)
	}
	return out
}

func (p inlinePass) split(text string) []Inline {
	matches := p.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Inline{{Kind: InlineText, Text: text}}
	}
	var out []Inline
	cursor := 0
	for _, m := range matches {
		if m[0] > cursor {
			out = append(out, Inline{Kind: InlineText, Text: text[cursor:m[0]]})
		}
		out = append(out, Inline{Kind: p.kind, Text: text[m[2]:m[3]]})
		cursor = m[1]
	}
	if cursor < len(text) {
		out = append(out, Inline{Kind: InlineText, Text: text[cursor:]})
	}
	return out
}

// PlainText returns the visible text of nodes, without markup.
func PlainText(nodes []Inline) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
	}
	return b.String()
}
