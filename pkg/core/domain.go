// Package core holds the domain types of the annotation engine and the ports
// through which it reaches storage and article content.
package core

import "unicode/utf8"

// BlockKind is the type of a content block.
type BlockKind string

const (
	KindText  BlockKind = "text"
	KindQuote BlockKind = "quote"
	KindImage BlockKind = "image"
	KindVideo BlockKind = "video"
	KindCode  BlockKind = "code"
)

// ContentBlock is one typed unit of article content.
// Blocks are created once when an article loads and never mutated afterwards.
type ContentBlock struct {
	ID         string    `json:"id"`
	Kind       BlockKind `json:"kind"`
	RawText    string    `json:"content"`
	Caption    string    `json:"caption,omitempty"`
	Language   string    `json:"language,omitempty"`
	AuthorNote string    `json:"authorNote,omitempty"`
	// Level is the heading level (1-6) of a text block, 0 for paragraphs.
	Level int `json:"level,omitempty"`
}

// Annotatable reports whether readers can anchor annotations to the block.
func (b ContentBlock) Annotatable() bool {
	return b.Kind == KindText || b.Kind == KindQuote
}

// Len returns the length of the block text in runes.
// All annotation offsets are expressed in this unit.
func (b ContentBlock) Len() int {
	return utf8.RuneCountInString(b.RawText)
}

// SelectionDraft is a resolved, not yet saved, reader selection.
type SelectionDraft struct {
	Text        string `json:"text"`
	BlockID     string `json:"blockId"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

// Valid reports whether the draft describes a non-empty range.
func (d SelectionDraft) Valid() bool {
	return d.Text != "" && d.BlockID != "" && d.StartOffset >= 0 && d.StartOffset < d.EndOffset
}

// EventType represents the type of change of a stored key.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change of a durable key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
