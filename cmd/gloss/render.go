package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/gloss"
	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/reader"
	"github.com/aretw0/gloss/pkg/render"
)

var renderHTML bool

var renderCmd = &cobra.Command{
	Use:   "render <article>",
	Short: "Render an article with its annotations",
	Long: `Render an article with its highlights. Text output marks each highlight
with its marker number and lists the notes under the block; --html writes the
reader's HTML view.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadArticle(ctx, args[0])
		if err != nil {
			return err
		}
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		view := eng.Open(ctx, a.ID, a.Blocks).View(ctx)
		if renderHTML {
			return gloss.NewHTMLWriter(cfg.Render.CodeStyle).Write(ctx, cmd.OutOrStdout(), view)
		}
		return writeText(cmd.OutOrStdout(), view)
	},
}

// writeText renders view as annotated plain text.
func writeText(w io.Writer, view reader.View) error {
	bw := bufio.NewWriter(w)
	for i, bv := range view.Blocks {
		if i > 0 {
			bw.WriteString("\n")
		}
		b := bv.Block
		switch b.Kind {
		case core.KindText, core.KindQuote:
			text := segmentsText(bv.Segments)
			if b.Level > 0 {
				text = strings.Repeat("#", b.Level) + " " + text
			}
			if b.Kind == core.KindQuote {
				text = "> " + strings.ReplaceAll(text, "\n", "\n> ")
			}
			bw.WriteString(text + "\n")
			for _, hv := range bv.Highlights {
				fmt.Fprintf(bw, "  [%d] %s\n", hv.Marker, hv.Annotation.Note)
			}
		case core.KindCode:
			fmt.Fprintf(bw, "```%s\n%s\n```\n", b.Language, b.RawText)
		case core.KindImage:
			fmt.Fprintf(bw, "![%s](%s)\n", b.Caption, b.RawText)
		case core.KindVideo:
			fmt.Fprintf(bw, "[video: %s](%s)\n", b.Caption, b.RawText)
		}
		if b.AuthorNote != "" {
			fmt.Fprintf(bw, "  * %s\n", b.AuthorNote)
		}
	}
	return bw.Flush()
}

func segmentsText(segs []render.Segment) string {
	var sb strings.Builder
	for _, seg := range segs {
		if seg.Kind == render.SegmentHighlight {
			fmt.Fprintf(&sb, "[%s][%d]", seg.Source, seg.Marker)
			continue
		}
		sb.WriteString(seg.Source)
	}
	return sb.String()
}

func init() {
	renderCmd.Flags().BoolVar(&renderHTML, "html", false, "Write HTML instead of text")
	rootCmd.AddCommand(renderCmd)
}
