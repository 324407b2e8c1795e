package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_TagsRecordEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 2)
	src := NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, Key: "annotations_post-1"}
	in <- core.Event{Type: core.EventDelete, Key: "settings"}

	want := []RecordEvent{
		{Event: core.Event{Type: core.EventCreate, Key: "annotations_post-1"}, ArticleID: "post-1"},
		{Event: core.Event{Type: core.EventDelete, Key: "settings"}},
	}
	for _, w := range want {
		select {
		case e := <-src.Events():
			assert.Equal(t, w, e)
		case <-time.After(time.Second):
			t.Fatal("event not forwarded")
		}
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestRecordEvent_String(t *testing.T) {
	e := RecordEvent{Event: core.Event{Type: core.EventModify, Key: "annotations_post-1"}, ArticleID: "post-1"}
	assert.Equal(t, "MODIFY annotations_post-1 (article post-1)", e.String())

	raw := RecordEvent{Event: core.Event{Type: core.EventDelete, Key: "settings"}}
	assert.Equal(t, "DELETE settings", raw.String())
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancel")
	}
}
