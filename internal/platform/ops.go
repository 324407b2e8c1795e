package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/gloss/pkg/adapters/fs"
	"github.com/aretw0/gloss/pkg/adapters/memory"
	"github.com/aretw0/gloss/pkg/adapters/sqlite"
	"github.com/aretw0/gloss/pkg/core"
)

// Init opens the storage backend selected by the options.
// The uri is adapter-specific: a directory for "fs", a database file for
// "sqlite", ignored for "memory".
func Init(ctx context.Context, uri string, opts ...Option) (core.KeyValue, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initKV(ctx, uri, o)
}

func initKV(ctx context.Context, uri string, o *options) (core.KeyValue, error) {
	if o.kv != nil {
		return o.kv, nil
	}

	switch o.adapter {
	case "fs":
		return initFS(ctx, uri, o)
	case "sqlite":
		return initSQLite(ctx, uri, o)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// resolvePath applies the dev sandbox to file-backed locations.
func resolvePath(path string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved := ResolveStorePath(path, useTemp)
	if useTemp && o.logger != nil {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}

func initFS(ctx context.Context, path string, o *options) (core.KeyValue, error) {
	mustExist, _ := o.config["must_exist"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	store := fs.NewStore(fs.Config{
		Path:         resolvePath(path, o),
		MustExist:    mustExist,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func initSQLite(ctx context.Context, path string, o *options) (core.KeyValue, error) {
	if path != ":memory:" {
		path = resolvePath(path, o)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return sqlite.Open(ctx, path, sqlite.WithLogger(o.logger))
}

// closeKV releases backends that hold resources.
func closeKV(kv core.KeyValue) error {
	if c, ok := kv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
