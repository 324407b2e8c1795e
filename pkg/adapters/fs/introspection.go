package fs

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/gloss/pkg/core"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string         `json:"path"`
	MustExist     bool           `json:"must_exist"`
	Watchers      int            `json:"watchers"`
	LastEvent     *time.Time     `json:"last_event,omitempty"`
	LastEventType core.EventType `json:"last_event_type,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		MustExist:     s.config.MustExist,
		Watchers:      s.watchers,
		LastEvent:     s.lastEvent,
		LastEventType: s.lastEventType,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
