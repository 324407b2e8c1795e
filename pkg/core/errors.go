package core

import "errors"

// Common errors.
var (
	// ErrSelectionUnresolved means a selection could not be mapped to an offset range.
	ErrSelectionUnresolved = errors.New("selection could not be resolved")
	// ErrEmptySelection means the selection covers no text.
	ErrEmptySelection = errors.New("selection is empty")
	ErrEmptyNote      = errors.New("annotation note is empty")
	ErrInvalidBounds  = errors.New("annotation bounds outside block text")
	ErrBlockNotFound  = errors.New("block not found")
	ErrNotFound       = errors.New("key not found")
	ErrInvalidKey     = errors.New("invalid key")
)
