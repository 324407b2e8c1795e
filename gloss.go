package gloss

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/gloss/internal/platform"
	"github.com/aretw0/gloss/pkg/article"
	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/markdown"
	"github.com/aretw0/gloss/pkg/reader"
)

// --- Types ---

// Engine ties the annotation store to its storage backend.
type Engine = platform.Engine

// Annotation is a saved highlight with its note.
type Annotation = core.Annotation

// ContentBlock is one block of an article.
type ContentBlock = core.ContentBlock

// SelectionDraft is a captured selection awaiting a note.
type SelectionDraft = core.SelectionDraft

// Session owns the UI state of one reader on one article.
type Session = reader.Session

// View is a rendered article.
type View = reader.View

// --- Configuration ---

// Option defines a functional option for configuring the engine.
type Option = platform.Option

// WithLogger sets the logger for the engine and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the storage adapter: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithKeyValue injects a custom storage backend.
func WithKeyValue(kv core.KeyValue) Option {
	return platform.WithKeyValue(kv)
}

// WithClock overrides the clock used to stamp annotation ids.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithMustExist ensures the store location must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox for file-backed stores.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler registers a callback for fs watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the storage backend at uri and returns an engine on it.
func New(ctx context.Context, uri string, opts ...Option) (*Engine, error) {
	return platform.New(ctx, uri, opts...)
}

// Init opens the storage backend alone.
func Init(ctx context.Context, uri string, opts ...Option) (core.KeyValue, error) {
	return platform.Init(ctx, uri, opts...)
}

// --- Content ---

// ParseBlocks splits markdown-lite text into content blocks.
func ParseBlocks(text string) []ContentBlock {
	return markdown.ParseBlocks(text)
}

// NewLibrary serves articles from a directory of markdown files.
func NewLibrary(root string, opts ...article.Option) *article.Library {
	return article.NewLibrary(root, opts...)
}

// NewHTMLWriter returns a writer that renders views as HTML using the named
// chroma style for code blocks.
func NewHTMLWriter(style string) *reader.HTMLWriter {
	return reader.NewHTMLWriter(style)
}

// --- Safety & Utils ---

// ResolveStorePath determines the actual store path under the dev sandbox rules.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards from startDir for a project root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
