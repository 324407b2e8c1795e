// Package config loads the gloss.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up at the project root.
const FileName = "gloss.yaml"

// Sentinel errors for configuration loading.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("config parse error")
	ErrConfigInvalid  = errors.New("invalid config")
)

// Config is the gloss.yaml layout.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Articles ArticlesConfig `yaml:"articles"`
	Render   RenderConfig   `yaml:"render"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig selects the annotation backend.
type StoreConfig struct {
	// Adapter is "fs", "sqlite" or "memory".
	Adapter string `yaml:"adapter"`
	// Path is a directory for fs, a database file for sqlite.
	Path string `yaml:"path"`
	// DevSafety sandboxes the store under the temp directory during
	// `go run`. Nil means enabled.
	DevSafety *bool `yaml:"dev_safety"`
}

// ArticlesConfig locates article sources.
type ArticlesConfig struct {
	Path   string `yaml:"path"`
	Locale string `yaml:"locale"`
}

// RenderConfig tunes HTML output.
type RenderConfig struct {
	// CodeStyle is a chroma style name.
	CodeStyle string `yaml:"code_style"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store:    StoreConfig{Adapter: "fs", Path: filepath.Join(".gloss", "annotations")},
		Articles: ArticlesConfig{Path: "articles", Locale: "en"},
		Render:   RenderConfig{CodeStyle: "github"},
		Log:      LogConfig{Level: "warn", Format: "text"},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find loads FileName from dir if it exists and returns the defaults
// otherwise. Relative paths in the result are resolved against dir.
func Find(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	cfg.resolve(dir)
	return cfg, nil
}

func (c *Config) resolve(dir string) {
	if c.Store.Path != "" && c.Store.Path != ":memory:" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(dir, c.Store.Path)
	}
	if c.Articles.Path != "" && !filepath.IsAbs(c.Articles.Path) {
		c.Articles.Path = filepath.Join(dir, c.Articles.Path)
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Store.Adapter {
	case "fs", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: store.adapter %q (want fs, sqlite or memory)", ErrConfigInvalid, c.Store.Adapter)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrConfigInvalid, c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrConfigInvalid, l.Level)
	}
	return level, nil
}
