// Package render combines a block's text, its annotations and markdown-lite
// formatting into one ordered sequence of non-overlapping segments.
package render

import (
	"sort"

	"github.com/aretw0/gloss/pkg/core"
)

// Resolution is the outcome of overlap resolution for one block.
type Resolution struct {
	// Accepted annotations, sorted by start offset, pairwise disjoint.
	Accepted []core.Annotation
	// Dropped annotations overlap an accepted one. They stay in storage.
	Dropped []core.Annotation
	// Invalid annotations fall outside the block text.
	Invalid []core.Annotation
}

// Resolve selects the annotations of a block that can be highlighted.
//
// anns must be in declaration order. They are stably sorted by start offset
// and accepted greedily: an annotation is kept only if it starts at or after
// the end of the previously kept one, so on overlap the earlier-starting (or,
// on a tie, earlier-declared) annotation wins. This is a deliberate
// simplification, not a merge.
func Resolve(textLen int, anns []core.Annotation) Resolution {
	var res Resolution
	valid := make([]core.Annotation, 0, len(anns))
	for _, a := range anns {
		if err := a.CheckBounds(textLen); err != nil {
			res.Invalid = append(res.Invalid, a)
			continue
		}
		valid = append(valid, a)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].StartOffset < valid[j].StartOffset
	})

	lastEnd := -1
	for _, a := range valid {
		if a.StartOffset >= lastEnd {
			res.Accepted = append(res.Accepted, a)
			lastEnd = a.EndOffset
			continue
		}
		res.Dropped = append(res.Dropped, a)
	}
	return res
}
