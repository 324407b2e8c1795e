package reader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/markdown"
	"github.com/aretw0/gloss/pkg/render"
)

// ErrHTMLRender indicates a view could not be written as HTML.
var ErrHTMLRender = errors.New("HTML rendering failed")

// HTMLWriter writes views as HTML fragments.
//
// Code blocks are highlighted with chroma using CSS classes; author notes are
// full markdown and go through goldmark, unlike article text which stays in
// the markdown-lite subset.
type HTMLWriter struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewHTMLWriter creates an HTMLWriter. style names a chroma style; unknown
// names fall back to chroma's default.
func NewHTMLWriter(style string) *HTMLWriter {
	return &HTMLWriter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(style),
	}
}

// Write renders view to w.
func (h *HTMLWriter) Write(ctx context.Context, w io.Writer, view View) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("<article class=\"gloss\">\n")
	for _, bv := range view.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.writeBlock(bw, bv); err != nil {
			return fmt.Errorf("%w: block %s: %v", ErrHTMLRender, bv.Block.ID, err)
		}
	}
	if view.Composer != nil {
		writeComposer(bw, view.Composer)
	}
	bw.WriteString("</article>\n")
	return bw.Flush()
}

func (h *HTMLWriter) writeBlock(w *bufio.Writer, bv BlockView) error {
	b := bv.Block
	id := attr(b.ID)

	switch b.Kind {
	case core.KindText:
		tag := "p"
		if b.Level > 0 {
			tag = fmt.Sprintf("h%d", b.Level)
		}
		fmt.Fprintf(w, "<%s data-block-id=\"%s\">", tag, id)
		writeSegments(w, bv)
		fmt.Fprintf(w, "</%s>\n", tag)

	case core.KindQuote:
		fmt.Fprintf(w, "<blockquote data-block-id=\"%s\">", id)
		writeSegments(w, bv)
		w.WriteString("</blockquote>\n")

	case core.KindCode:
		fmt.Fprintf(w, "<div class=\"code\" data-block-id=\"%s\" data-language=\"%s\">", id, attr(b.Language))
		if err := h.highlight(w, b.Language, b.RawText); err != nil {
			return err
		}
		w.WriteString("</div>\n")

	case core.KindImage:
		fmt.Fprintf(w, "<figure data-block-id=\"%s\"><img src=\"%s\" alt=\"%s\">", id, attr(b.RawText), attr(b.Caption))
		writeCaption(w, b.Caption)
		w.WriteString("</figure>\n")

	case core.KindVideo:
		fmt.Fprintf(w, "<figure data-block-id=\"%s\">", id)
		if embed := markdown.EmbedURL(b.RawText); embed != b.RawText {
			fmt.Fprintf(w, "<iframe src=\"%s\" title=\"%s\" allowfullscreen></iframe>", attr(embed), attr(b.Caption))
		} else {
			fmt.Fprintf(w, "<video controls src=\"%s\"></video>", attr(b.RawText))
		}
		writeCaption(w, b.Caption)
		w.WriteString("</figure>\n")
	}

	if b.AuthorNote != "" {
		open := ""
		if bv.AuthorNoteOpen {
			open = " open"
		}
		fmt.Fprintf(w, "<details class=\"author-note\" data-block-id=\"%s\"%s><summary>Author's note</summary>", id, open)
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(b.AuthorNote), &buf); err != nil {
			return err
		}
		w.Write(buf.Bytes())
		w.WriteString("</details>\n")
	}
	return nil
}

func (h *HTMLWriter) highlight(w io.Writer, lang, code string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return err
	}
	return h.formatter.Format(w, h.style, it)
}

func writeSegments(w *bufio.Writer, bv BlockView) {
	hls := make(map[int]HighlightView, len(bv.Highlights))
	for _, hv := range bv.Highlights {
		hls[hv.Marker] = hv
	}

	for _, seg := range bv.Segments {
		switch seg.Kind {
		case render.SegmentDropCap:
			fmt.Fprintf(w, "<span class=\"drop-cap\">%s</span>", html.EscapeString(seg.Source))
		case render.SegmentHighlight:
			writeHighlight(w, seg, hls[seg.Marker])
		default:
			writeInlines(w, seg.Inlines)
		}
	}
}

func writeHighlight(w *bufio.Writer, seg render.Segment, hv HighlightView) {
	class := "annotation"
	if hv.Pinned {
		class += " pinned"
	}
	id := attr(hv.Annotation.ID)
	fmt.Fprintf(w, "<mark class=\"%s\" data-annotation-id=\"%s\">", class, id)
	writeInlines(w, seg.Inlines)
	fmt.Fprintf(w, "<sup class=\"annotation-marker\">%d</sup></mark>", seg.Marker)

	hidden := " hidden"
	if hv.PopoverOpen {
		hidden = ""
	}
	fmt.Fprintf(w, "<aside class=\"annotation-popover\" data-annotation-id=\"%s\"%s>", id, hidden)
	fmt.Fprintf(w, "<q>%s</q><p>%s</p></aside>",
		html.EscapeString(hv.Annotation.QuotedExcerpt),
		html.EscapeString(hv.Annotation.Note))
}

func writeInlines(w *bufio.Writer, nodes []markdown.Inline) {
	for _, n := range nodes {
		text := strings.ReplaceAll(html.EscapeString(n.Text), "\n", "<br>")
		switch n.Kind {
		case markdown.InlineStrong:
			fmt.Fprintf(w, "<strong>%s</strong>", text)
		case markdown.InlineEmphasis:
			fmt.Fprintf(w, "<em>%s</em>", text)
		case markdown.InlineCode:
			fmt.Fprintf(w, "<code>%s</code>", text)
		default:
			w.WriteString(text)
		}
	}
}

func writeCaption(w *bufio.Writer, caption string) {
	if caption != "" {
		fmt.Fprintf(w, "<figcaption>%s</figcaption>", html.EscapeString(caption))
	}
}

func writeComposer(w *bufio.Writer, c *ComposerView) {
	fmt.Fprintf(w, "<form class=\"annotation-composer\" data-block-id=\"%s\" data-start=\"%d\" data-end=\"%d\">",
		attr(c.Draft.BlockID), c.Draft.StartOffset, c.Draft.EndOffset)
	fmt.Fprintf(w, "<q>%s</q><textarea name=\"note\"></textarea>", html.EscapeString(c.Draft.Text))
	w.WriteString("<button type=\"submit\">Save</button><button type=\"reset\">Cancel</button></form>\n")
}

func attr(s string) string {
	return html.EscapeString(s)
}
