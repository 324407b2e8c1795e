package reader

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
)

// Session is one reader's view of one article: it owns the transient UI state
// and routes view interactions to the annotation store.
//
// Failures never reach the view. A save or remove that cannot be persisted is
// logged and the view keeps showing the last persisted state.
type Session struct {
	articleID string
	blocks    []core.ContentBlock
	byID      map[string]core.ContentBlock
	store     *annotation.Store
	logger    *slog.Logger

	mu      sync.Mutex
	pinned  string
	hovered string
	draft   *core.SelectionDraft
	notes   map[string]bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession opens articleID for reading and loads its annotations.
func NewSession(ctx context.Context, store *annotation.Store, articleID string, blocks []core.ContentBlock, opts ...SessionOption) *Session {
	s := &Session{
		articleID: articleID,
		blocks:    blocks,
		byID:      make(map[string]core.ContentBlock, len(blocks)),
		store:     store,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		notes:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, b := range blocks {
		s.byID[b.ID] = b
	}
	store.Load(ctx, articleID)
	return s
}

// ArticleID returns the id of the article being read.
func (s *Session) ArticleID() string {
	return s.articleID
}

// Snapshot returns the current state, annotations included.
func (s *Session) Snapshot(ctx context.Context) State {
	annotations := s.store.Annotations(ctx, s.articleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make(map[string]bool, len(s.notes))
	for id, open := range s.notes {
		notes[id] = open
	}
	var draft *core.SelectionDraft
	if s.draft != nil {
		d := *s.draft
		draft = &d
	}
	return State{
		Annotations: annotations,
		Pinned:      s.pinned,
		Hovered:     s.hovered,
		Draft:       draft,
		OpenNotes:   notes,
	}
}

// View renders the article under the current state.
func (s *Session) View(ctx context.Context) View {
	return build(s.blocks, s.Snapshot(ctx), s.Callbacks(ctx), s.logger)
}

// ClickOutside handles a click anywhere outside a highlight: it unpins the
// pinned popover.
func (s *Session) ClickOutside() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = ""
}

// Callbacks returns the callbacks that apply interactions to this session.
// ctx is used for the storage calls they make.
func (s *Session) Callbacks(ctx context.Context) Callbacks {
	return Callbacks{
		OnTextSelected:        s.openComposer,
		OnShowComposer:        s.openComposer,
		OnSaveAnnotation:      func(d core.SelectionDraft, note string) { s.save(ctx, d, note) },
		OnCancelComposer:      s.cancel,
		OnRemoveAnnotation:    func(id string) { s.remove(ctx, id) },
		OnHighlightAnnotation: s.togglePin,
		OnHoverAnnotation:     s.hover,
		OnToggleAuthorNote:    s.toggleNote,
	}
}

func (s *Session) openComposer(d core.SelectionDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = &d
}

func (s *Session) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

func (s *Session) save(ctx context.Context, d core.SelectionDraft, note string) {
	block, ok := s.byID[d.BlockID]
	if !ok {
		s.logger.Warn("annotation not saved", "block", d.BlockID, "error", core.ErrBlockNotFound)
		return
	}
	candidate := core.Annotation{StartOffset: d.StartOffset, EndOffset: d.EndOffset}
	if err := candidate.CheckBounds(block.Len()); err != nil {
		s.logger.Warn("annotation not saved", "block", d.BlockID, "error", err)
		return
	}

	id, err := s.store.Add(ctx, s.articleID, d, note)
	if err != nil {
		// The composer stays open so the note is not lost.
		s.logger.Warn("annotation not saved", "block", d.BlockID, "error", err)
		return
	}
	s.logger.Info("annotation saved", "article", s.articleID, "id", id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

func (s *Session) remove(ctx context.Context, id string) {
	if err := s.store.Remove(ctx, s.articleID, id); err != nil {
		s.logger.Warn("annotation not removed", "id", id, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned == id {
		s.pinned = ""
	}
	if s.hovered == id {
		s.hovered = ""
	}
}

// togglePin pins the popover of id, or unpins it when it already is.
func (s *Session) togglePin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned == id {
		s.pinned = ""
		return
	}
	s.pinned = id
}

func (s *Session) hover(id string, hovering bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case hovering:
		s.hovered = id
	case s.hovered == id:
		s.hovered = ""
	}
}

func (s *Session) toggleNote(blockID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[blockID] = !s.notes[blockID]
}
