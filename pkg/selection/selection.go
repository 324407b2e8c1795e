// Package selection turns a reader's in-place text selection into a
// content-addressed draft: a block id plus a rune range of the block text.
//
// Native selection handling (walking the rendered tree up to the element that
// carries the block identity, reading the text before the selection start)
// belongs to the UI edge. This package only receives the resolved pieces and
// does the offset math.
package selection

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/gloss/pkg/core"
)

// Event is a completed selection scoped to one block.
type Event struct {
	// BlockID is the identity of the nearest ancestor carrying a block id.
	BlockID string
	// Preceding is that ancestor's plain text before the selection start.
	Preceding string
	// Text is the selected text.
	Text string
	// Clear removes the active native selection. Optional.
	Clear func()
}

// Capture resolves ev against block and returns the selection draft.
//
// The offset is first derived from the length of the preceding text. When the
// block text at that range differs from the selection (the selection crossed
// rendered markup, so rendered and raw offsets disagree) the first occurrence
// of the selected text is used instead. If the text does not occur at all the
// selection is unresolved.
func Capture(block core.ContentBlock, ev Event) (core.SelectionDraft, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return core.SelectionDraft{}, core.ErrEmptySelection
	}
	if ev.BlockID != block.ID {
		return core.SelectionDraft{}, fmt.Errorf("%w: selection in %q resolved against %q", core.ErrSelectionUnresolved, ev.BlockID, block.ID)
	}
	if !block.Annotatable() {
		return core.SelectionDraft{}, fmt.Errorf("%w: %s block %q is not annotatable", core.ErrSelectionUnresolved, block.Kind, block.ID)
	}

	text := []rune(block.RawText)
	length := utf8.RuneCountInString(ev.Text)
	start := utf8.RuneCountInString(ev.Preceding)
	end := start + length

	if end > len(text) || string(text[start:end]) != ev.Text {
		idx := strings.Index(block.RawText, ev.Text)
		if idx < 0 {
			return core.SelectionDraft{}, fmt.Errorf("%w: %q not found in %q", core.ErrSelectionUnresolved, ev.Text, block.ID)
		}
		start = utf8.RuneCountInString(block.RawText[:idx])
		end = start + length
	}

	if ev.Clear != nil {
		ev.Clear()
	}

	return core.SelectionDraft{
		Text:        ev.Text,
		BlockID:     block.ID,
		StartOffset: start,
		EndOffset:   end,
	}, nil
}

// Locate resolves a selection by its text alone, picking the n-th occurrence
// (1-based) in the block. It serves callers without a rendered tree.
func Locate(block core.ContentBlock, text string, occurrence int) (core.SelectionDraft, error) {
	if strings.TrimSpace(text) == "" {
		return core.SelectionDraft{}, core.ErrEmptySelection
	}
	if occurrence < 1 {
		occurrence = 1
	}

	offset := 0
	rest := block.RawText
	for n := 1; ; n++ {
		idx := strings.Index(rest, text)
		if idx < 0 {
			return core.SelectionDraft{}, fmt.Errorf("%w: occurrence %d of %q not found in %q", core.ErrSelectionUnresolved, occurrence, text, block.ID)
		}
		if n == occurrence {
			offset += idx
			break
		}
		offset += idx + len(text)
		rest = rest[idx+len(text):]
	}

	return Capture(block, Event{
		BlockID:   block.ID,
		Preceding: block.RawText[:offset],
		Text:      text,
	})
}
