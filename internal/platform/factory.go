package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/reader"
)

// Engine ties an annotation store to its storage backend.
type Engine struct {
	Store  *annotation.Store
	kv     core.KeyValue
	logger *slog.Logger
}

// New opens the storage backend and builds the annotation store on it.
//
//	eng, err := gloss.New(ctx, "./.gloss/annotations", gloss.WithAdapter("fs"))
func New(ctx context.Context, uri string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}

	kv, err := initKV(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	storeOpts := []annotation.Option{annotation.WithLogger(o.logger)}
	if o.clock != nil {
		storeOpts = append(storeOpts, annotation.WithClock(o.clock))
	}

	return &Engine{
		Store:  annotation.NewStore(kv, storeOpts...),
		kv:     kv,
		logger: o.logger,
	}, nil
}

// KeyValue returns the storage backend.
func (e *Engine) KeyValue() core.KeyValue {
	return e.kv
}

// Open starts a reading session on articleID.
func (e *Engine) Open(ctx context.Context, articleID string, blocks []core.ContentBlock) *reader.Session {
	return reader.NewSession(ctx, e.Store, articleID, blocks, reader.WithSessionLogger(e.logger))
}

// Follow keeps loaded annotation sets in sync with writes made by other
// processes. It blocks until ctx is cancelled and fails if the backend cannot
// be watched.
func (e *Engine) Follow(ctx context.Context) error {
	w, ok := e.kv.(core.Watchable)
	if !ok {
		return fmt.Errorf("storage backend %T cannot be watched", e.kv)
	}
	return e.Store.Follow(ctx, w)
}

// Close releases the storage backend.
func (e *Engine) Close() error {
	return closeKV(e.kv)
}
