package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMarkdownDocumentFrontmatter(t *testing.T) {
	doc := buildMarkdownDocument("http://a.com", "A Title", "utf-8", "2026-07-31T00:00:00Z", 42, "Body text")
	assert.Equal(t, "---\nurl: http://a.com\ntitle: A Title\nfetched_utc: 2026-07-31T00:00:00Z\nencoding: utf-8\ntoken_count: 42\n---\n\nBody text", doc)
}

func TestAtomicFileWriterWritesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewAtomicFileWriter(dir)

	require.NoError(t, w.Write("doc.md", "first"))
	content, err := os.ReadFile(filepath.Join(dir, "doc.md"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	require.NoError(t, w.Write("doc.md", "second"))
	content, err = os.ReadFile(filepath.Join(dir, "doc.md"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestAtomicFileWriterLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	w := NewAtomicFileWriter(dir)
	require.NoError(t, w.Write("doc.md", "content"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "doc.md", entries[0].Name())
}
