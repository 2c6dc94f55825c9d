package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicFilenameIsStable(t *testing.T) {
	a := deterministicFilename("My Page", "http://example.com/a")
	b := deterministicFilename("My Page", "http://example.com/a")
	assert.Equal(t, a, b)
}

func TestDeterministicFilenameVariesWithURL(t *testing.T) {
	a := deterministicFilename("My Page", "http://example.com/a")
	b := deterministicFilename("My Page", "http://example.com/b")
	assert.NotEqual(t, a, b)
}

func TestSanitizeTitleReplacesForbiddenChars(t *testing.T) {
	got := sanitizeTitle(`a/b\c:d*e?f"g<h>i|j`)
	for _, ch := range `\/:*?"<>|` {
		assert.NotContains(t, got, string(ch))
	}
}

func TestSanitizeTitleCollapsesUnderscoresAndTrims(t *testing.T) {
	got := sanitizeTitle("  ...a///b...  ")
	assert.False(t, strings.Contains(got, "__"))
	assert.False(t, strings.HasPrefix(got, "_"))
	assert.False(t, strings.HasSuffix(got, "_"))
}

func TestSanitizeTitleTruncatesTo80(t *testing.T) {
	got := sanitizeTitle(strings.Repeat("a", 200))
	assert.LessOrEqual(t, len(got), maxFilenameStem)
}

func TestSanitizeTitleHandlesReservedWindowsNames(t *testing.T) {
	got := sanitizeTitle("CON")
	assert.Equal(t, "CON_", got)
}

func TestSanitizeTitleEmptyBecomesUntitled(t *testing.T) {
	assert.Equal(t, "untitled", sanitizeTitle(""))
	assert.Equal(t, "untitled", sanitizeTitle("///"))
}
