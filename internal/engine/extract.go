package engine

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractedDocument is the title/body pair picked out of a decoded HTML
// page before conversion.
type ExtractedDocument struct {
	Title       string // empty if no non-blank <title> was found
	InnerHTML   string
	UsedArticle bool
}

// ExtractDocument picks the title from the first <title> element and the
// content from the first <article>, falling back to <body>, falling
// back to the whole document - the same readability-lite cascade the
// original engine's extractor uses.
func ExtractDocument(html string) (*ExtractedDocument, *StageError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errOf(FailureProcessingError, err.Error())
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	if article := doc.Find("article").First(); article.Length() > 0 {
		inner, _ := article.Html()
		return &ExtractedDocument{Title: title, InnerHTML: inner, UsedArticle: true}, nil
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		inner, _ := body.Html()
		return &ExtractedDocument{Title: title, InnerHTML: inner}, nil
	}

	whole, _ := doc.Html()
	return &ExtractedDocument{Title: title, InnerHTML: whole}, nil
}
