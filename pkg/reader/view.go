// Package reader exposes the render contract of the annotation engine: it
// turns an article's blocks plus the reader's annotation state into a view
// whose interactive parts are bound to caller-supplied callbacks.
//
// Render is pure. Transient UI state (hovered and pinned popovers, the open
// composer, expanded author notes) is passed in explicitly through State and
// changed only by the callbacks; Session is a ready-made owner of that state.
package reader

import (
	"log/slog"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/render"
	"github.com/aretw0/gloss/pkg/selection"
)

// State is the annotation state a view is rendered from.
type State struct {
	Annotations core.AnnotationSet
	// Pinned is the annotation whose popover was clicked open.
	Pinned string
	// Hovered is the annotation under the pointer.
	Hovered string
	// Draft is the selection the composer is open for, if any.
	Draft *core.SelectionDraft
	// OpenNotes holds the blocks whose author note is expanded.
	OpenNotes map[string]bool
}

// Callbacks receive the reader's interactions with a view.
// Nil callbacks are ignored.
type Callbacks struct {
	OnTextSelected        func(draft core.SelectionDraft)
	OnShowComposer        func(draft core.SelectionDraft)
	OnSaveAnnotation      func(draft core.SelectionDraft, note string)
	OnCancelComposer      func()
	OnRemoveAnnotation    func(id string)
	OnHighlightAnnotation func(id string)
	OnHoverAnnotation     func(id string, hovering bool)
	OnToggleAuthorNote    func(blockID string)
}

// View is a rendered article.
type View struct {
	Blocks   []BlockView
	Composer *ComposerView
}

// BlockView is one rendered block.
type BlockView struct {
	Block core.ContentBlock
	// Segments is empty for blocks that are not annotatable.
	Segments []render.Segment
	// Highlights mirrors the highlighted segments, in marker order.
	Highlights []HighlightView
	// Dropped annotations overlap an accepted one and are not shown.
	Dropped        []core.Annotation
	AuthorNoteOpen bool

	// Select handles a completed text selection inside the block.
	Select func(ev selection.Event)
	// ToggleAuthorNote expands or collapses the author note.
	ToggleAuthorNote func()
}

// HighlightView is an annotated span and its popover.
type HighlightView struct {
	Annotation core.Annotation
	Marker     int
	Pinned     bool
	// PopoverOpen is true while hovered or pinned.
	PopoverOpen bool

	Click  func()
	Hover  func()
	Leave  func()
	Remove func()
}

// ComposerView is the open annotation composer.
type ComposerView struct {
	Draft  core.SelectionDraft
	Save   func(note string)
	Cancel func()
}

// Render builds the view of blocks under state. Handlers in the view invoke cb.
func Render(blocks []core.ContentBlock, state State, cb Callbacks) View {
	return build(blocks, state, cb, nil)
}

func build(blocks []core.ContentBlock, state State, cb Callbacks, logger *slog.Logger) View {
	var view View
	dropCap := render.DropCapBlock(blocks)

	for _, block := range blocks {
		bv := BlockView{
			Block:          block,
			AuthorNoteOpen: state.OpenNotes[block.ID],
			ToggleAuthorNote: func() {
				if cb.OnToggleAuthorNote != nil {
					cb.OnToggleAuthorNote(block.ID)
				}
			},
		}

		if block.Annotatable() {
			res := render.Block(block, state.Annotations.ForBlock(block.ID), render.Options{
				DropCap: block.ID == dropCap,
				Logger:  logger,
			})
			bv.Segments = res.Segments
			bv.Dropped = res.Dropped
			for _, seg := range res.Highlights() {
				bv.Highlights = append(bv.Highlights, highlightView(*seg.Annotation, seg.Marker, state, cb))
			}
			bv.Select = func(ev selection.Event) {
				draft, err := selection.Capture(block, ev)
				if err != nil {
					// Unresolved selections are dropped silently.
					if logger != nil {
						logger.Debug("selection discarded", "block", block.ID, "error", err)
					}
					return
				}
				if cb.OnTextSelected != nil {
					cb.OnTextSelected(draft)
				}
				if cb.OnShowComposer != nil {
					cb.OnShowComposer(draft)
				}
			}
		} else {
			bv.Select = func(selection.Event) {}
		}

		view.Blocks = append(view.Blocks, bv)
	}

	if state.Draft != nil {
		draft := *state.Draft
		view.Composer = &ComposerView{
			Draft: draft,
			Save: func(note string) {
				if cb.OnSaveAnnotation != nil {
					cb.OnSaveAnnotation(draft, note)
				}
			},
			Cancel: func() {
				if cb.OnCancelComposer != nil {
					cb.OnCancelComposer()
				}
			},
		}
	}
	return view
}

func highlightView(a core.Annotation, marker int, state State, cb Callbacks) HighlightView {
	pinned := state.Pinned == a.ID
	return HighlightView{
		Annotation:  a,
		Marker:      marker,
		Pinned:      pinned,
		PopoverOpen: pinned || state.Hovered == a.ID,
		Click: func() {
			if cb.OnHighlightAnnotation != nil {
				cb.OnHighlightAnnotation(a.ID)
			}
		},
		Hover: func() {
			if cb.OnHoverAnnotation != nil {
				cb.OnHoverAnnotation(a.ID, true)
			}
		},
		Leave: func() {
			if cb.OnHoverAnnotation != nil {
				cb.OnHoverAnnotation(a.ID, false)
			}
		},
		Remove: func() {
			if cb.OnRemoveAnnotation != nil {
				cb.OnRemoveAnnotation(a.ID)
			}
		},
	}
}
