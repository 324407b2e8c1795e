package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArticle = `---
title: On Reading
author_notes:
  block-1: Written on a train.
---
# On Reading

The quick brown fox jumps over the quick dog.

` + "```go\npackage main\n```\n"

// run executes the CLI against a workspace under dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	listJSON, blocksJSON, renderHTML = false, false, false
	annBlock, annText, annNote = "", "", ""
	annOccurrence, annStart, annEnd = 1, 0, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{
		"--store", filepath.Join(dir, "store"),
		"--articles", filepath.Join(dir, "articles"),
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "articles"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "articles", "on-reading.md"), []byte(testArticle), 0644))
	return dir
}

func TestCLI_AnnotateListRemove(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, dir, "blocks", "on-reading")
	require.NoError(t, err)
	assert.Contains(t, out, "block-0")
	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "block-2")

	out, err = run(t, dir, "annotate", "on-reading", "--block", "block-1", "--text", "quick", "--occurrence", "2", "--note", "again")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(id, "block-1-"), id)

	out, err = run(t, dir, "list", "on-reading", "--json")
	require.NoError(t, err)
	var items []listedAnnotation
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "block-1", items[0].BlockID)
	assert.Equal(t, 35, items[0].StartOffset)
	assert.Equal(t, 40, items[0].EndOffset)

	out, err = run(t, dir, "render", "on-reading")
	require.NoError(t, err)
	assert.Contains(t, out, "over the [quick][1] dog.")
	assert.Contains(t, out, "  [1] again")
	assert.Contains(t, out, "  * Written on a train.")

	out, err = run(t, dir, "render", "on-reading", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, `<mark class="annotation"`)

	out, err = run(t, dir, "remove", "on-reading", id)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
	assert.NoFileExists(t, filepath.Join(dir, "store", "annotations_on-reading.json"))

	_, err = run(t, dir, "remove", "on-reading", id)
	assert.Error(t, err)
}

func TestCLI_AnnotateByOffsets(t *testing.T) {
	dir := workspace(t)

	_, err := run(t, dir, "annotate", "on-reading", "--block", "block-1", "--start", "4", "--end", "15", "--note", "n")
	require.NoError(t, err)
	_, err = run(t, dir, "annotate", "on-reading", "--block", "block-1", "--start", "40", "--end", "99", "--note", "n")
	assert.Error(t, err)
	_, err = run(t, dir, "annotate", "on-reading", "--block", "block-2", "--start", "0", "--end", "3", "--note", "n")
	assert.Error(t, err, "code blocks are not annotatable")
	_, err = run(t, dir, "annotate", "on-reading", "--block", "block-9", "--text", "x", "--note", "n")
	assert.Error(t, err)

	out, err := run(t, dir, "clear", "on-reading")
	require.NoError(t, err)
	assert.Contains(t, out, "1 annotation(s) removed")
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gloss version ")
}
