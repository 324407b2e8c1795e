package annotation

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Articles    map[string]int `json:"articles"`
	StorageType string         `json:"storage_type"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	articles := make(map[string]int, len(s.sets))
	for id, set := range s.sets {
		articles[id] = len(set)
	}

	storageType := "unknown"
	if comp, ok := s.kv.(introspection.Component); ok {
		storageType = comp.ComponentType()
	}

	return StoreState{
		Articles:    articles,
		StorageType: storageType,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "annotation-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
