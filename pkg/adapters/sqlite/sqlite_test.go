package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	require.NoError(t, s.Set(ctx, "annotations_b", []byte(`{"x":1}`)))
	require.NoError(t, s.Set(ctx, "annotations_a", []byte(`{}`)))
	require.NoError(t, s.Set(ctx, "annotations_b", []byte(`{"x":2}`)))

	got, err := s.Get(ctx, "annotations_b")
	require.NoError(t, err)
	assert.Equal(t, `{"x":2}`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"annotations_a", "annotations_b"}, keys)

	require.NoError(t, s.Remove(ctx, "annotations_b"))
	_, err = s.Get(ctx, "annotations_b")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, s.Remove(ctx, "annotations_b"), "removing a missing key is not an error")

	assert.Equal(t, 4, s.State().(StoreState).Writes)
	assert.Equal(t, "sqlite-store", s.ComponentType())
}

func TestStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	assert.ErrorIs(t, s.Set(ctx, "", []byte("x")), core.ErrInvalidKey)
	_, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidKey)
	assert.ErrorIs(t, s.Remove(ctx, ""), core.ErrInvalidKey)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gloss.db")

	first := openTest(t, path)
	id, err := annotation.NewStore(first).Add(ctx, "post-1",
		core.SelectionDraft{Text: "quick", BlockID: "block-1", StartOffset: 4, EndOffset: 9}, "note")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTest(t, path)
	set := annotation.NewStore(second).Load(ctx, "post-1")
	require.Contains(t, set, id)
	assert.Equal(t, "quick", set[id].QuotedExcerpt)
}
