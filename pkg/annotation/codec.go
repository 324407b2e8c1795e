package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/gloss/pkg/core"
)

// decode parses a durable record. Anything but a JSON object of annotations
// is an error; the caller degrades it to an empty set.
func decode(data []byte) (core.AnnotationSet, error) {
	var raw map[string]core.Annotation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid annotation record: %w", err)
	}
	set := make(core.AnnotationSet, len(raw))
	for id, a := range raw {
		a.ID = id
		set[id] = a
	}
	return set, nil
}

// encode serializes the whole set as one JSON object keyed by id.
func encode(set core.AnnotationSet) ([]byte, error) {
	return json.MarshalIndent(map[string]core.Annotation(set), "", "  ")
}
