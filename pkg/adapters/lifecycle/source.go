// Package lifecycle bridges annotation record changes to lifecycle sources.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
)

// RecordEvent is a change of one stored record, tagged with the article it
// belongs to. ArticleID is empty for keys outside the annotation namespace.
type RecordEvent struct {
	core.Event
	ArticleID string
}

// String implements lifecycle.Event.
func (e RecordEvent) String() string {
	if e.ArticleID == "" {
		return e.Event.String()
	}
	return fmt.Sprintf("%s %s (article %s)", e.Type, e.Key, e.ArticleID)
}

type recordSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source emitting a RecordEvent for every
// store change read from events.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &recordSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *recordSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input stream ends, then
// closes the output.
func (s *recordSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- tag(e):
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func tag(e core.Event) RecordEvent {
	articleID, _ := annotation.ArticleID(e.Key)
	return RecordEvent{Event: e, ArticleID: articleID}
}
