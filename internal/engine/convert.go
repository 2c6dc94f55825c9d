package engine

import (
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// LinkKind classifies one link discovered while converting a document.
type LinkKind int

const (
	LinkHyperlink LinkKind = iota
	LinkImage
	LinkEmail
)

type ExtractedLink struct {
	URL  string
	Text string
	Kind LinkKind
}

// ConversionOutput is the Convert stage's result: the document rendered
// to Markdown plus every link discovered along the way, capped at
// maxLinks: hyperlinks (including mailto:) in document order, followed by
// images in document order.
type ConversionOutput struct {
	Markdown string
	Links    []ExtractedLink
}

// DefaultMaxLinks matches the original engine's DEFAULT_MAX_LINKS.
const DefaultMaxLinks = 5000

// ConvertToMarkdown renders innerHTML to Markdown via the project's
// HTML-to-Markdown library, then walks the same HTML with goquery to
// collect hyperlink/image/email links resolved against baseURL.
func ConvertToMarkdown(innerHTML, baseURL string, maxLinks int) (*ConversionOutput, *StageError) {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}

	converter := md.NewConverter(baseURL, true, nil)
	body, err := converter.ConvertString(innerHTML)
	if err != nil {
		return nil, errOf(FailureProcessingError, err.Error())
	}

	links := extractLinks(innerHTML, baseURL, maxLinks)

	return &ConversionOutput{
		Markdown: strings.TrimSpace(body),
		Links:    links,
	}, nil
}

func extractLinks(innerHTML, baseURL string, maxLinks int) []ExtractedLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(innerHTML))
	if err != nil {
		return nil
	}

	doc.Find("script,style,noscript,iframe,template").Remove()

	base, _ := url.Parse(baseURL)

	var links []ExtractedLink
	addLink := func(l ExtractedLink) {
		if len(links) >= maxLinks {
			return
		}
		links = append(links, l)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := resolveLinkURL(href, base)
		if !ok {
			return
		}
		kind := LinkHyperlink
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "mailto:") {
			kind = LinkEmail
		}
		addLink(ExtractedLink{URL: resolved, Text: strings.TrimSpace(sel.Text()), Kind: kind})
	})

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		resolved, ok := resolveLinkURL(src, base)
		if !ok {
			return
		}
		addLink(ExtractedLink{URL: resolved, Text: "", Kind: LinkImage})
	})

	return links
}

// resolveLinkURL mirrors the original converter's resolve_url: trims the
// reference, skips fragment-only/query-only/javascript: references, and
// resolves relative references against base.
func resolveLinkURL(ref string, base *url.URL) (string, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "?") || strings.HasPrefix(lower, "javascript:") {
		return "", false
	}

	if parsed, err := url.Parse(trimmed); err == nil && parsed.IsAbs() {
		return parsed.String(), true
	}

	if base == nil {
		return "", false
	}
	resolved, err := base.Parse(trimmed)
	if err != nil {
		return "", false
	}
	return resolved.String(), true
}
