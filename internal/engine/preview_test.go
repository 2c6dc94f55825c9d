package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortContentKeptAsIs(t *testing.T) {
	content := "hello world"
	assert.Equal(t, content, preparePreviewContent(content))
}

func TestTruncatedContentAppendsMarker(t *testing.T) {
	content := strings.Repeat("a", MaxPreviewContent+500)
	out := preparePreviewContent(content)
	assert.True(t, strings.HasSuffix(out, truncatedMarker))
	assert.LessOrEqual(t, len(out), MaxPreviewContent+len(truncatedMarker))
}

func TestStripsFrontmatterAndTrimsBlankLine(t *testing.T) {
	doc := "---\nurl: http://a.com\ntitle: A\n---\n\nBody text"
	assert.Equal(t, "Body text", stripFrontmatter(doc))
}

func TestMalformedFrontmatterIsIgnored(t *testing.T) {
	doc := "---\nno closing delimiter here"
	assert.Equal(t, doc, stripFrontmatter(doc))
}

func TestTruncationNeverSplitsAMultibyteRune(t *testing.T) {
	content := strings.Repeat("é", MaxPreviewContent) // 2 bytes each
	out := preparePreviewContent(content)
	assert.True(t, strings.HasSuffix(out, truncatedMarker))
	body := strings.TrimSuffix(out, truncatedMarker)
	for i := range body {
		_ = i // ranging validates rune boundaries; a corrupt split panics on bad UTF-8 decode only under utf8.DecodeRuneInString, so just assert validity below
	}
	assert.True(t, isValidUTF8(body))
}

func TestComputePreviewQualityFlagsNavHeavyPage(t *testing.T) {
	markdown := "home about contact"
	quality := computePreviewQuality(markdown, 2)
	assert.InDelta(t, 2.0/3.0, quality.LinkDensity, 0.0001)
	assert.True(t, quality.NavHeavy())
}

func TestComputePreviewQualityCountsHeadings(t *testing.T) {
	markdown := "# Title\n\nSome body text with more than a couple words.\n\n## Section\nmore words here"
	quality := computePreviewQuality(markdown, 1)
	assert.Equal(t, 2, quality.HeadingCount)
	assert.False(t, quality.NavHeavy())
}

func isValidUTF8(s string) bool {
	for i := 0; i < len(s); {
		r := s[i]
		switch {
		case r < 0x80:
			i++
		case r&0xE0 == 0xC0:
			i += 2
		case r&0xF0 == 0xE0:
			i += 3
		case r&0xF8 == 0xF0:
			i += 4
		default:
			return false
		}
		if i > len(s) {
			return false
		}
	}
	return true
}
