package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Annotation is a reader note anchored to a sub-range of a block's text.
//
// The ID is derived from the owning block, the creation time in milliseconds
// and a random suffix: "<blockID>-<unixMillis>-<suffix>". Offsets are rune
// indexes into the block text at creation time.
type Annotation struct {
	ID            string `json:"-"`
	Note          string `json:"note"`
	QuotedExcerpt string `json:"quotedExcerpt"`
	StartOffset   int    `json:"startOffset"`
	EndOffset     int    `json:"endOffset"`
}

// NewAnnotationID builds an annotation id for the given block.
func NewAnnotationID(blockID string, at time.Time, suffix string) string {
	return fmt.Sprintf("%s-%d-%s", blockID, at.UnixMilli(), suffix)
}

// splitID separates an annotation id into block id, timestamp and suffix.
func splitID(id string) (blockID, stamp string, ok bool) {
	last := strings.LastIndex(id, "-")
	if last <= 0 {
		return "", "", false
	}
	prev := strings.LastIndex(id[:last], "-")
	if prev <= 0 {
		return "", "", false
	}
	return id[:prev], id[prev+1 : last], true
}

// BlockID returns the id of the block the annotation is anchored to.
// It is empty when the id does not follow the annotation id layout.
func (a Annotation) BlockID() string {
	blockID, _, _ := splitID(a.ID)
	return blockID
}

// CreatedAt returns the creation time encoded in the id, or the zero time.
func (a Annotation) CreatedAt() time.Time {
	_, stamp, ok := splitID(a.ID)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// CheckBounds validates the offsets against a block text of textLen runes.
func (a Annotation) CheckBounds(textLen int) error {
	if a.StartOffset < 0 || a.StartOffset >= a.EndOffset || a.EndOffset > textLen {
		return fmt.Errorf("%w: [%d,%d) in text of length %d", ErrInvalidBounds, a.StartOffset, a.EndOffset, textLen)
	}
	return nil
}

// AnnotationSet maps annotation ids to annotations for one article.
type AnnotationSet map[string]Annotation

// Clone returns a shallow copy of the set.
func (s AnnotationSet) Clone() AnnotationSet {
	out := make(AnnotationSet, len(s))
	for id, a := range s {
		out[id] = a
	}
	return out
}

// ForBlock returns the annotations anchored to blockID in declaration order.
func (s AnnotationSet) ForBlock(blockID string) []Annotation {
	var out []Annotation
	for id, a := range s {
		a.ID = id
		if a.BlockID() == blockID {
			out = append(out, a)
		}
	}
	sortByDeclaration(out)
	return out
}

// Sorted returns all annotations in declaration order.
func (s AnnotationSet) Sorted() []Annotation {
	out := make([]Annotation, 0, len(s))
	for id, a := range s {
		a.ID = id
		out = append(out, a)
	}
	sortByDeclaration(out)
	return out
}

func sortByDeclaration(anns []Annotation) {
	sort.Slice(anns, func(i, j int) bool {
		ti, tj := anns[i].CreatedAt(), anns[j].CreatedAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return anns[i].ID < anns[j].ID
	})
}
