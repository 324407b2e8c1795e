package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/selection"
)

var (
	annBlock      string
	annText       string
	annOccurrence int
	annStart      int
	annEnd        int
	annNote       string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <article>",
	Short: "Highlight a passage and attach a note",
	Long: `Highlight a passage of a block and attach a note to it.
The passage is given either by its text (--text, with --occurrence when it
appears more than once) or by rune offsets (--start, --end).`,
	Example: `  gloss annotate on-reading --block block-1 --text "quick brown" --note "nice rhythm"
  gloss annotate on-reading --block block-1 --start 4 --end 15 --note "nice rhythm"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadArticle(ctx, args[0])
		if err != nil {
			return err
		}

		var block *core.ContentBlock
		for i := range a.Blocks {
			if a.Blocks[i].ID == annBlock {
				block = &a.Blocks[i]
				break
			}
		}
		if block == nil {
			return fmt.Errorf("%w: %s", core.ErrBlockNotFound, annBlock)
		}

		draft, err := resolveDraft(*block)
		if err != nil {
			return err
		}

		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		id, err := eng.Store.Add(ctx, a.ID, draft, annNote)
		if err != nil {
			return err
		}
		slog.Info("annotation saved", "article", a.ID, "id", id)
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// resolveDraft builds the selection from the flags.
func resolveDraft(block core.ContentBlock) (core.SelectionDraft, error) {
	if annText != "" {
		return selection.Locate(block, annText, annOccurrence)
	}
	if annEnd <= annStart {
		return core.SelectionDraft{}, errors.New("either --text or --start/--end is required")
	}
	candidate := core.Annotation{StartOffset: annStart, EndOffset: annEnd}
	if err := candidate.CheckBounds(block.Len()); err != nil {
		return core.SelectionDraft{}, err
	}
	if !block.Annotatable() {
		return core.SelectionDraft{}, fmt.Errorf("%w: %s block %q is not annotatable", core.ErrSelectionUnresolved, block.Kind, block.ID)
	}
	return core.SelectionDraft{
		Text:        string([]rune(block.RawText)[annStart:annEnd]),
		BlockID:     block.ID,
		StartOffset: annStart,
		EndOffset:   annEnd,
	}, nil
}

func init() {
	flags := annotateCmd.Flags()
	flags.StringVar(&annBlock, "block", "", "Block id (see `gloss blocks`)")
	flags.StringVar(&annText, "text", "", "Passage to highlight")
	flags.IntVar(&annOccurrence, "occurrence", 1, "Which occurrence of --text to highlight")
	flags.IntVar(&annStart, "start", 0, "First rune of the passage")
	flags.IntVar(&annEnd, "end", 0, "Rune after the passage")
	flags.StringVar(&annNote, "note", "", "Note text")
	_ = annotateCmd.MarkFlagRequired("block")
	_ = annotateCmd.MarkFlagRequired("note")
	rootCmd.AddCommand(annotateCmd)
}
