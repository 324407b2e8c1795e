package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/gloss/pkg/core"
)

// Ext is the extension of the file holding each key.
const Ext = ".json"

// Store implements core.KeyValue on a directory, one file per key.
// Writes go through a temp file and a rename, so readers never see a torn
// record.
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watchers      int
	lastEvent     *time.Time
	lastEventType core.EventType
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path string
	// MustExist makes Initialize fail instead of creating Path.
	MustExist bool
	Logger    *slog.Logger
	// ErrorHandler receives watcher failures. Optional.
	ErrorHandler func(error)
}

// NewStore creates a filesystem-backed store rooted at config.Path.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &Store{
		Path:   config.Path,
		config: config,
	}
}

// Initialize prepares the store directory.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
		return nil
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// filename maps key to its file, rejecting keys that would escape the store.
func (s *Store) filename(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) ||
		strings.HasPrefix(key, ".") ||
		strings.HasPrefix(key, TempFilePrefix) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidKey, key)
	}
	return filepath.Join(s.Path, key+Ext), nil
}

// Get implements core.KeyValue.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.filename(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set implements core.KeyValue.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeRecord(key, value); err != nil {
		return err
	}
	s.config.Logger.Debug("key written", "key", key, "bytes", len(value))
	return nil
}

// Remove implements core.KeyValue.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.filename(key)
	if err != nil {
		return err
	}
	err = os.Remove(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	s.config.Logger.Debug("key removed", "key", key)
	return nil
}

// Keys lists the stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := keyOf(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// keyOf reverses filename for a base name inside the store directory.
func keyOf(base string) (string, bool) {
	if strings.HasPrefix(base, TempFilePrefix) || strings.HasPrefix(base, ".") {
		return "", false
	}
	key, ok := strings.CutSuffix(base, Ext)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

var _ core.KeyValue = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
