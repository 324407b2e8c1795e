// Package annotation persists the per-article annotation sets.
//
// Each article owns one durable record, "annotations_<articleID>", holding the
// whole set as a JSON object keyed by annotation id. Every mutation rewrites
// the whole record; an empty set deletes the record instead of leaving "{}".
package annotation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/gloss/pkg/core"
)

// KeyPrefix prefixes the durable key of every article record.
const KeyPrefix = "annotations_"

// Key returns the durable key holding the annotations of articleID.
func Key(articleID string) string {
	return KeyPrefix + articleID
}

// ArticleID extracts the article id from a durable key.
func ArticleID(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, KeyPrefix)
	return id, ok && id != ""
}

// Store owns the in-memory annotation sets and their durable copies.
type Store struct {
	kv     core.KeyValue
	logger *slog.Logger
	now    func() time.Time
	suffix func() string

	mu   sync.RWMutex
	sets map[string]core.AnnotationSet
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degraded reads and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for annotation ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithSuffix overrides the random id suffix generator.
func WithSuffix(fn func() string) Option {
	return func(s *Store) {
		s.suffix = fn
	}
}

// NewStore creates a Store persisting to kv.
func NewStore(kv core.KeyValue, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		suffix: randomSuffix,
		sets:   make(map[string]core.AnnotationSet),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// Load reads the durable set of articleID and makes it the in-memory state.
//
// Load is best-effort: a missing record, a read error or a payload that is not
// a JSON object of annotations all yield an empty set. Failures are logged,
// never returned. A failed read is not cached, so the next mutation reads the
// record again instead of overwriting it.
func (s *Store) Load(ctx context.Context, articleID string) core.AnnotationSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.read(ctx, articleID)
	if err != nil {
		s.logger.Warn("annotation read failed, showing empty", "key", Key(articleID), "error", err)
		delete(s.sets, articleID)
		return make(core.AnnotationSet)
	}
	s.sets[articleID] = set
	return set.Clone()
}

// read returns the durable set of articleID. Missing and unparsable records
// yield an empty set; only storage failures are returned. Callers hold s.mu.
func (s *Store) read(ctx context.Context, articleID string) (core.AnnotationSet, error) {
	key := Key(articleID)
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return make(core.AnnotationSet), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	set, err := decode(data)
	if err != nil {
		s.logger.Warn("annotation payload unreadable, starting empty", "key", key, "error", err)
		return make(core.AnnotationSet), nil
	}
	return set, nil
}

// Save replaces the set of articleID, in memory and durably.
func (s *Store) Save(ctx context.Context, articleID string, set core.AnnotationSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, articleID, set.Clone())
}

func (s *Store) saveLocked(ctx context.Context, articleID string, set core.AnnotationSet) error {
	key := Key(articleID)
	if len(set) == 0 {
		if err := s.kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		s.sets[articleID] = set
		return nil
	}

	data, err := encode(set)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.sets[articleID] = set
	return nil
}

// current returns the in-memory set of articleID, loading it on first use.
// Callers hold s.mu.
func (s *Store) current(ctx context.Context, articleID string) (core.AnnotationSet, error) {
	if set, ok := s.sets[articleID]; ok {
		return set, nil
	}
	set, err := s.read(ctx, articleID)
	if err != nil {
		return nil, err
	}
	s.sets[articleID] = set
	return set, nil
}

// Add saves a new annotation from draft and returns its id.
// The offsets are not checked against the block text; callers owning the
// block do that before saving.
func (s *Store) Add(ctx context.Context, articleID string, draft core.SelectionDraft, note string) (string, error) {
	if !draft.Valid() {
		return "", fmt.Errorf("%w: [%d,%d) in %q", core.ErrEmptySelection, draft.StartOffset, draft.EndOffset, draft.BlockID)
	}
	if strings.TrimSpace(note) == "" {
		return "", core.ErrEmptyNote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(ctx, articleID)
	if err != nil {
		return "", err
	}
	id := core.NewAnnotationID(draft.BlockID, s.now(), s.suffix())
	next := cur.Clone()
	next[id] = core.Annotation{
		ID:            id,
		Note:          note,
		QuotedExcerpt: draft.Text,
		StartOffset:   draft.StartOffset,
		EndOffset:     draft.EndOffset,
	}
	if err := s.saveLocked(ctx, articleID, next); err != nil {
		return "", err
	}

	s.logger.Debug("annotation added", "article", articleID, "id", id)
	return id, nil
}

// Remove deletes annotation id from articleID. When it was the last one the
// durable record is deleted. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, articleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(ctx, articleID)
	if err != nil {
		return err
	}
	if _, ok := cur[id]; !ok {
		s.logger.Debug("annotation already absent", "article", articleID, "id", id)
		return nil
	}
	next := cur.Clone()
	delete(next, id)
	if err := s.saveLocked(ctx, articleID, next); err != nil {
		return err
	}

	s.logger.Debug("annotation removed", "article", articleID, "id", id)
	return nil
}

// Clear deletes every annotation of articleID.
func (s *Store) Clear(ctx context.Context, articleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, articleID, make(core.AnnotationSet))
}

// Annotations returns a copy of the in-memory set of articleID.
// Sets never loaded are read from storage first.
func (s *Store) Annotations(ctx context.Context, articleID string) core.AnnotationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.current(ctx, articleID)
	if err != nil {
		s.logger.Warn("annotation read failed, showing empty", "key", Key(articleID), "error", err)
		return make(core.AnnotationSet)
	}
	return set.Clone()
}

// Reload re-reads the sets of articles already held in memory whose durable
// record changed elsewhere. The durable copy wins: there is no merge.
// The read happens under the store lock so it cannot land after a newer
// local write.
func (s *Store) Reload(ctx context.Context, articleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[articleID]; !ok {
		return
	}

	set, err := s.read(ctx, articleID)
	if err != nil {
		s.logger.Warn("annotation reload failed, dropping cached set", "key", Key(articleID), "error", err)
		delete(s.sets, articleID)
		return
	}
	s.sets[articleID] = set
}

// Follow reloads in-memory sets whenever w reports a change to their record.
// It blocks until ctx is cancelled or the event stream ends.
func (s *Store) Follow(ctx context.Context, w core.Watchable) error {
	events, err := w.Watch(ctx, KeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to watch annotations: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			articleID, ok := ArticleID(e.Key)
			if !ok {
				continue
			}
			s.logger.Debug("annotation record changed", "article", articleID, "event", e.Type)
			s.Reload(ctx, articleID)
		}
	}
}
