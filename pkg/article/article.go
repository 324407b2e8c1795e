// Package article loads articles from markdown files with YAML frontmatter.
//
// A source file is laid out as
//
//	---
//	title: On Reading
//	author_notes:
//	  block-2: Written after a long **train** ride.
//	---
//	# On Reading
//	...
//
// Frontmatter is optional. author_notes attaches notes to blocks by id.
package article

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/gloss/pkg/core"
	"github.com/aretw0/gloss/pkg/markdown"
)

// ErrFrontmatter means a frontmatter block could not be read.
var ErrFrontmatter = errors.New("invalid frontmatter")

// Frontmatter is the YAML header of an article source.
type Frontmatter struct {
	Title       string            `yaml:"title"`
	AuthorNotes map[string]string `yaml:"author_notes"`
}

// Article is a parsed article.
type Article struct {
	ID     string
	Locale string
	Frontmatter
	Blocks []core.ContentBlock
	// Orphans are author notes whose block id matched no block.
	Orphans []string
}

// Parse reads an article source.
func Parse(r io.Reader) (*Article, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	a := &Article{}
	body, err := splitFrontmatter(data, &a.Frontmatter)
	if err != nil {
		return nil, err
	}

	a.Blocks = markdown.ParseBlocks(string(body))
	used := make(map[string]bool, len(a.AuthorNotes))
	for i := range a.Blocks {
		if note, ok := a.AuthorNotes[a.Blocks[i].ID]; ok {
			a.Blocks[i].AuthorNote = note
			used[a.Blocks[i].ID] = true
		}
	}
	for id := range a.AuthorNotes {
		if !used[id] {
			a.Orphans = append(a.Orphans, id)
		}
	}
	sort.Strings(a.Orphans)
	return a, nil
}

// splitFrontmatter decodes a leading --- block into fm and returns the rest.
func splitFrontmatter(data []byte, fm *Frontmatter) ([]byte, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return data, nil
	}

	rest := data[len("---\n"):]
	var header, body []byte
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		body = bytes.TrimPrefix(rest[3:], []byte("\n"))
	} else {
		end := bytes.Index(rest, []byte("\n---\n"))
		switch {
		case end >= 0:
			header, body = rest[:end], rest[end+len("\n---\n"):]
		case bytes.HasSuffix(rest, []byte("\n---")):
			header = rest[:len(rest)-len("\n---")]
		default:
			return nil, fmt.Errorf("%w: no closing delimiter", ErrFrontmatter)
		}
	}

	if err := yaml.Unmarshal(header, fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrontmatter, err)
	}
	return body, nil
}
