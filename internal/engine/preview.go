package engine

import (
	"strings"

	"github.com/ternarybob/harvester/internal/reducer"
)

// MaxPreviewContent bounds how much of a document's body is retained as
// a live preview, to keep progress events and the UI cheap to render.
const MaxPreviewContent = 40960

const truncatedMarker = "\n.[truncated]"

// stripFrontmatter removes a leading "---\n ... \n---" block, if present,
// and trims one leading blank line after it. Malformed front matter
// (missing either delimiter) is left untouched.
func stripFrontmatter(content string) string {
	const open = "---\n"
	if !strings.HasPrefix(content, open) {
		return content
	}
	rest := content[len(open):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return content
	}
	body := rest[idx+len("\n---"):]
	// The first newline ends the closing delimiter line; the second is the
	// blank line that separates front matter from the body.
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	return body
}

// preparePreviewContent strips front matter then truncates to
// MaxPreviewContent bytes, never splitting a UTF-8 rune, appending
// truncatedMarker only when truncation actually occurred.
func preparePreviewContent(content string) string {
	stripped := stripFrontmatter(content)

	if len(stripped) <= MaxPreviewContent {
		return stripped
	}

	end := MaxPreviewContent
	for end > 0 && !isUTF8Boundary(stripped, end) {
		end--
	}

	return stripped[:end] + truncatedMarker
}

// computePreviewQuality derives the UI's nav-heavy signal from the
// converted body: heading lines (Markdown "#" ATX headings) and link
// density (links discovered during Convert per word of body text).
func computePreviewQuality(markdown string, linkCount int) reducer.PreviewQuality {
	headings := 0
	words := 0
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			headings++
		}
		words += len(strings.Fields(trimmed))
	}

	density := 0.0
	if words > 0 {
		density = float64(linkCount) / float64(words)
	}

	return reducer.PreviewQuality{HeadingCount: headings, LinkDensity: density}
}

func isUTF8Boundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	// A byte is a continuation byte of a multi-byte rune iff its top two
	// bits are 10. Any other leading bits mark a rune (or ASCII) start.
	return s[i]&0xC0 != 0x80
}
