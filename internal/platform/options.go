package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/gloss/pkg/core"
)

// options holds the internal configuration for the engine.
type options struct {
	kv      core.KeyValue
	logger  *slog.Logger
	adapter string
	clock   func() time.Time
	config  map[string]interface{}
}

// Option defines a functional option for configuring the engine.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the engine and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeyValue injects a custom storage backend.
// If provided, the adapter named by WithAdapter is skipped.
func WithKeyValue(kv core.KeyValue) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithAdapter selects the storage adapter by name: "fs", "sqlite" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithClock overrides the clock used to stamp annotation ids.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithMustExist ensures the store location must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) file-backed stores are re-rooted under the
// system temp directory so development runs never touch real reader data.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithWatcherErrorHandler registers a callback for failures of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
