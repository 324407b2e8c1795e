package annotation_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/gloss/pkg/adapters/fs"
	"github.com/aretw0/gloss/pkg/adapters/memory"
	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedStore returns a store with a deterministic clock and id suffixes.
func fixedStore(kv core.KeyValue) *annotation.Store {
	tick := int64(1700000000000)
	n := 0
	return annotation.NewStore(kv,
		annotation.WithClock(func() time.Time {
			tick++
			return time.UnixMilli(tick)
		}),
		annotation.WithSuffix(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
	)
}

func draft(block string, start, end int, text string) core.SelectionDraft {
	return core.SelectionDraft{Text: text, BlockID: block, StartOffset: start, EndOffset: end}
}

func TestStore_AddPersistsWholeRecord(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	id, err := s.Add(ctx, "post-1", draft("block-0", 4, 15, "quick brown"), "nice phrase")
	require.NoError(t, err)
	assert.Equal(t, "block-0-1700000000001-s1", id)

	raw, err := kv.Get(ctx, "annotations_post-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"block-0-1700000000001-s1": {
			"note": "nice phrase",
			"quotedExcerpt": "quick brown",
			"startOffset": 4,
			"endOffset": 15
		}
	}`, string(raw))

	got := s.Annotations(ctx, "post-1")
	require.Contains(t, got, id)
	assert.Equal(t, id, got[id].ID)
	assert.Equal(t, "block-0", got[id].BlockID())
}

func TestStore_AddRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	_, err := s.Add(ctx, "post-1", draft("block-0", 3, 3, ""), "note")
	assert.ErrorIs(t, err, core.ErrEmptySelection)

	_, err = s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "   ")
	assert.ErrorIs(t, err, core.ErrEmptyNote)

	assert.Empty(t, kv.Keys(), "rejected drafts must not touch storage")
}

func TestStore_LoadSaveIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	_, err := s.Add(ctx, "post-1", draft("block-0", 0, 10, "0123456789"), "a")
	require.NoError(t, err)
	_, err = s.Add(ctx, "post-1", draft("block-2", 5, 12, "fghijkl"), "b")
	require.NoError(t, err)

	x := s.Load(ctx, "post-1")
	require.NoError(t, s.Save(ctx, "post-1", x))

	fresh := fixedStore(kv)
	assert.Equal(t, x, fresh.Load(ctx, "post-1"))
}

func TestStore_RemoveIsImmediate(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	keep, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "keep")
	require.NoError(t, err)
	gone, err := s.Add(ctx, "post-1", draft("block-0", 4, 9, "quick"), "gone")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "post-1", gone))

	assert.NotContains(t, s.Annotations(ctx, "post-1"), gone)
	loaded := fixedStore(kv).Load(ctx, "post-1")
	assert.NotContains(t, loaded, gone)
	assert.Contains(t, loaded, keep)
}

func TestStore_RemoveLastDeletesKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	id, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "only")
	require.NoError(t, err)
	require.Equal(t, []string{"annotations_post-1"}, kv.Keys())

	require.NoError(t, s.Remove(ctx, "post-1", id))

	_, err = kv.Get(ctx, "annotations_post-1")
	assert.ErrorIs(t, err, core.ErrNotFound, "no empty record may remain")
	assert.Empty(t, s.Annotations(ctx, "post-1"))
}

func TestStore_RemoveUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	s := fixedStore(memory.New())
	assert.NoError(t, s.Remove(ctx, "post-1", "block-0-1-x"))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := fixedStore(kv)

	_, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	require.NoError(t, err)
	_, err = s.Add(ctx, "post-2", draft("block-0", 0, 3, "The"), "b")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "post-1"))
	assert.Equal(t, []string{"annotations_post-2"}, kv.Keys())
	assert.Empty(t, s.Load(ctx, "post-1"))
}

func TestStore_LoadCorruptPayload(t *testing.T) {
	ctx := context.Background()

	for _, payload := range []string{"not-json", `"not-json"`, `[1,2]`, `{"id": 3}`} {
		t.Run(payload, func(t *testing.T) {
			kv := memory.New()
			require.NoError(t, kv.Set(ctx, "annotations_post-1", []byte(payload)))

			s := fixedStore(kv)
			var got core.AnnotationSet
			require.NotPanics(t, func() { got = s.Load(ctx, "post-1") })
			assert.Empty(t, got)
			assert.NotNil(t, got)
		})
	}
}

type brokenKV struct{ err error }

func (b brokenKV) Get(ctx context.Context, key string) ([]byte, error)     { return nil, b.err }
func (b brokenKV) Set(ctx context.Context, key string, value []byte) error { return b.err }
func (b brokenKV) Remove(ctx context.Context, key string) error            { return b.err }

func TestStore_StorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	s := fixedStore(brokenKV{err: boom})

	assert.Empty(t, s.Load(ctx, "post-1"), "read failures degrade to an empty set")

	_, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Annotations(ctx, "post-1"), "failed writes leave memory untouched")
}

// gatedKV pauses the first Get issued after arm until release is closed.
type gatedKV struct {
	*memory.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.Store.Get(ctx, key)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return data, err
}

func TestStore_ReloadDoesNotLoseConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	kv := &gatedKV{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	s := fixedStore(kv)

	a, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	require.NoError(t, err)

	kv.armed.Store(true)
	reloaded := make(chan struct{})
	go func() {
		s.Reload(ctx, "post-1")
		close(reloaded)
	}()
	<-kv.entered

	var b string
	added := make(chan error, 1)
	go func() {
		var err error
		b, err = s.Add(ctx, "post-1", draft("block-0", 4, 9, "quick"), "b")
		added <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(kv.release)
	<-reloaded
	require.NoError(t, <-added)

	c, err := s.Add(ctx, "post-1", draft("block-0", 10, 15, "brown"), "c")
	require.NoError(t, err)

	durable := fixedStore(kv).Load(ctx, "post-1")
	assert.Len(t, durable, 3)
	for _, id := range []string{a, b, c} {
		assert.Contains(t, durable, id)
	}
}

func TestStore_FailedReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	kv := fs.NewStore(fs.Config{Path: t.TempDir()})
	require.NoError(t, kv.Initialize(ctx))

	writer := fixedStore(kv)
	_, err := writer.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	require.NoError(t, err)
	_, err = writer.Add(ctx, "post-1", draft("block-1", 0, 3, "The"), "b")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	reader := fixedStore(kv)
	assert.Empty(t, reader.Load(cancelled, "post-1"), "failed reads still show an empty set")
	assert.Empty(t, reader.State().(annotation.StoreState).Articles)

	_, err = reader.Add(ctx, "post-1", draft("block-2", 0, 3, "The"), "c")
	require.NoError(t, err)
	assert.Len(t, fixedStore(kv).Load(ctx, "post-1"), 3)
}

func TestStore_ReloadFailureDropsCachedSet(t *testing.T) {
	ctx := context.Background()
	kv := fs.NewStore(fs.Config{Path: t.TempDir()})
	require.NoError(t, kv.Initialize(ctx))
	s := fixedStore(kv)

	_, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	require.NoError(t, err)

	// Another session adds to the same record.
	other, err := fixedStore(kv).Add(ctx, "post-1", draft("block-1", 0, 3, "The"), "b")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	s.Reload(cancelled, "post-1")

	assert.Contains(t, s.Annotations(ctx, "post-1"), other)
}

type fakeWatch struct{ ch chan core.Event }

func (f fakeWatch) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return f.ch, nil
}

func TestStore_FollowReloadsExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := memory.New()
	reader := fixedStore(kv)
	assert.Empty(t, reader.Load(ctx, "post-1"))

	// Another session writes the same record.
	writer := fixedStore(kv)
	id, err := writer.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "from elsewhere")
	require.NoError(t, err)

	w := fakeWatch{ch: make(chan core.Event)}
	done := make(chan error, 1)
	go func() { done <- reader.Follow(ctx, w) }()

	w.ch <- core.Event{Type: core.EventModify, Key: "unrelated"}
	w.ch <- core.Event{Type: core.EventModify, Key: annotation.Key("post-1")}
	close(w.ch)
	require.NoError(t, <-done)

	assert.Contains(t, reader.Annotations(ctx, "post-1"), id)
}

func TestStore_State(t *testing.T) {
	ctx := context.Background()
	s := fixedStore(memory.New())
	_, err := s.Add(ctx, "post-1", draft("block-0", 0, 3, "The"), "a")
	require.NoError(t, err)

	state, ok := s.State().(annotation.StoreState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Articles["post-1"])
	assert.Equal(t, "memory", state.StorageType)
	assert.Equal(t, "annotation-store", s.ComponentType())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "annotations_post-1", annotation.Key("post-1"))
	id, ok := annotation.ArticleID("annotations_post-1")
	assert.True(t, ok)
	assert.Equal(t, "post-1", id)
	_, ok = annotation.ArticleID("annotations_")
	assert.False(t, ok)
}
