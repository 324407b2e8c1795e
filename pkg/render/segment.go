package render

import (
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/markdown"
)

// SegmentKind distinguishes plain from decorated segments.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentHighlight
	SegmentDropCap
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentHighlight:
		return "highlight"
	case SegmentDropCap:
		return "dropcap"
	default:
		return "text"
	}
}

// Segment is a contiguous range [Start, End) of a block's text.
type Segment struct {
	Kind  SegmentKind
	Start int
	End   int
	// Source is the raw block text of the range.
	Source string
	// Inlines is Source after markdown-lite inline processing.
	Inlines []markdown.Inline
	// Annotation and Marker are set on highlights. Markers count from 1
	// within the block.
	Annotation *core.Annotation
	Marker     int
}

// Result is the rendering of one block.
type Result struct {
	Segments []Segment
	Resolution
}

// Highlights returns the highlighted segments in marker order.
func (r Result) Highlights() []Segment {
	var out []Segment
	for _, s := range r.Segments {
		if s.Kind == SegmentHighlight {
			out = append(out, s)
		}
	}
	return out
}

// Source concatenates the raw text of all segments.
// It always equals the text of the rendered block.
func (r Result) Source() string {
	var b strings.Builder
	for _, s := range r.Segments {
		b.WriteString(s.Source)
	}
	return b.String()
}

// Options controls block rendering.
type Options struct {
	// DropCap decorates the first character. Set it for the first paragraph
	// of an article only.
	DropCap bool
	Logger  *slog.Logger
}

// Block renders the text of block with its annotations.
//
// Markdown-lite inline processing runs independently on each segment, so an
// annotation that bisects a token pair (e.g. starts between "**" markers)
// leaves both halves unformatted or mis-formatted. That case is a known
// limitation and is not corrected here.
func Block(block core.ContentBlock, anns []core.Annotation, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	text := []rune(block.RawText)
	res := Result{Resolution: Resolve(len(text), anns)}
	for _, a := range res.Invalid {
		logger.Warn("annotation outside block text, skipped",
			"block", block.ID, "id", a.ID,
			"start", a.StartOffset, "end", a.EndOffset, "length", len(text))
	}

	cursor := 0
	if opts.DropCap && dropCapAllowed(text, res.Accepted) {
		res.Segments = append(res.Segments, Segment{
			Kind:   SegmentDropCap,
			Start:  0,
			End:    1,
			Source: string(text[:1]),
		})
		cursor = 1
	}

	for i := range res.Accepted {
		a := res.Accepted[i]
		res.Segments = appendText(res.Segments, text, cursor, a.StartOffset)
		source := string(text[a.StartOffset:a.EndOffset])
		res.Segments = append(res.Segments, Segment{
			Kind:       SegmentHighlight,
			Start:      a.StartOffset,
			End:        a.EndOffset,
			Source:     source,
			Inlines:    markdown.ParseInline(source),
			Annotation: &a,
			Marker:     i + 1,
		})
		cursor = a.EndOffset
	}
	res.Segments = appendText(res.Segments, text, cursor, len(text))

	if len(res.Dropped) > 0 {
		logger.Debug("overlapping annotations not rendered", "block", block.ID, "dropped", len(res.Dropped))
	}
	return res
}

func appendText(segs []Segment, text []rune, start, end int) []Segment {
	if start >= end {
		return segs
	}
	source := string(text[start:end])
	return append(segs, Segment{
		Kind:    SegmentText,
		Start:   start,
		End:     end,
		Source:  source,
		Inlines: markdown.ParseInline(source),
	})
}

// dropCapAllowed reports whether the first character can be decorated: it must
// not open an inline markdown token, be blank, or sit inside a highlight.
func dropCapAllowed(text []rune, accepted []core.Annotation) bool {
	if len(text) == 0 {
		return false
	}
	if text[0] == '*' || text[0] == '`' || unicode.IsSpace(text[0]) {
		return false
	}
	return len(accepted) == 0 || accepted[0].StartOffset > 0
}

// DropCapBlock returns the id of the block that carries the drop cap: the
// first paragraph (a text block that is not a heading), or "" if none.
func DropCapBlock(blocks []core.ContentBlock) string {
	for _, b := range blocks {
		if b.Kind == core.KindText && b.Level == 0 {
			return b.ID
		}
	}
	return ""
}
