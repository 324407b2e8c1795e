package core

import "context"

// KeyValue is the durable key-value facility the engine persists to.
// Implementations hold opaque values; the engine stores JSON documents.
type KeyValue interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Watchable is implemented by stores that can report changes made by other
// processes, e.g. another reader session writing the same file.
type Watchable interface {
	// Watch emits events for keys matching pattern until ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// ArticleProvider delivers the ordered blocks of an article.
type ArticleProvider interface {
	Blocks(ctx context.Context, articleID, locale string) ([]ContentBlock, error)
}
