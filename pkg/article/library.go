package article

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/gloss/pkg/core"
)

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

// Library serves articles stored as <root>/<id>.<locale>.md, falling back to
// <root>/<id>.md when no localized source exists.
type Library struct {
	Root   string
	logger *slog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the library logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLibrary creates a library rooted at root.
func NewLibrary(root string, opts ...Option) *Library {
	l := &Library{
		Root:   root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and parses the article id in locale.
func (l *Library) Load(ctx context.Context, id, locale string) (*Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("%w: article id %q", core.ErrInvalidKey, id)
	}

	candidates := []string{id + ".md"}
	if locale != "" {
		candidates = append([]string{id + "." + locale + ".md"}, candidates...)
	}

	for i, name := range candidates {
		f, err := os.Open(filepath.Join(l.Root, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open article %s: %w", id, err)
		}

		a, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("article %s: %w", id, err)
		}
		a.ID = id
		if locale != "" && i == 0 {
			a.Locale = locale
		} else if locale != "" {
			l.logger.Debug("no localized source, using default", "article", id, "locale", locale)
		}
		for _, orphan := range a.Orphans {
			l.logger.Warn("author note targets unknown block", "article", id, "block", orphan)
		}
		return a, nil
	}

	return nil, fmt.Errorf("%w: article %s", core.ErrNotFound, id)
}

// Blocks implements core.ArticleProvider.
func (l *Library) Blocks(ctx context.Context, id, locale string) ([]core.ContentBlock, error) {
	a, err := l.Load(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	return a.Blocks, nil
}

// List returns the ids of all articles in the library, sorted.
func (l *Library) List(ctx context.Context) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(l.Root), "*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, m := range matches {
		id, _ := SplitName(m)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SplitName splits a source file name into article id and locale.
func SplitName(name string) (id, locale string) {
	base, ok := strings.CutSuffix(filepath.Base(name), ".md")
	if !ok {
		return "", ""
	}
	if dot := strings.LastIndex(base, "."); dot > 0 && localePattern.MatchString(base[dot+1:]) {
		return base[:dot], base[dot+1:]
	}
	return base, ""
}

var _ core.ArticleProvider = (*Library)(nil)
