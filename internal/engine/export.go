package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
)

// ExportOptions configures the concatenated export, its manifest, and the
// optional supplementary PDF rendering.
type ExportOptions struct {
	OutputFilename   string
	ManifestFilename string
	DelimiterStart   string
	DelimiterEnd     string
	PDFEnabled       bool
	PDFFilename      string
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		OutputFilename:   "export.txt",
		ManifestFilename: "manifest.json",
		DelimiterStart:   "===== DOC START =====",
		DelimiterEnd:     "===== DOC END =====",
		PDFEnabled:       false,
		PDFFilename:      "export.pdf",
	}
}

type parsedDoc struct {
	filename   string
	url        string
	title      string
	fetchedUTC string
	tokens     uint32
	body       string
}

// manifestEntry is one row of the export manifest.
type manifestEntry struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Tokens     uint32 `json:"tokens"`
	FetchedUTC string `json:"fetched_utc"`
}

type manifest struct {
	DocCount    int             `json:"doc_count"`
	TotalTokens uint64          `json:"total_tokens"`
	Files       []manifestEntry `json:"files"`
}

// BuildConcatenatedExport reads every *.md file in dir (sorted by
// filename), concatenates their bodies between delimiters, and writes
// both the export text and its JSON manifest atomically. Documents with
// malformed front matter are skipped, not fatal to the run. When
// opts.PDFEnabled is set, a supplementary PDF rendering of the same
// documents is attempted; a failure there is logged and never fails the
// text/manifest export.
func BuildConcatenatedExport(dir string, opts ExportOptions, logger arbor.ILogger) (docCount int, totalTokens uint64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read output dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []parsedDoc
	for _, name := range names {
		raw, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			continue
		}
		doc, ok := parseDoc(name, string(raw))
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}

	var buf strings.Builder
	var man manifest
	for _, doc := range docs {
		fmt.Fprintf(&buf, "%s\nurl: %s\ntitle: %s\ntokens: %d\nfetched_utc: %s\nfilename: %s\n\n%s\n%s\n\n",
			opts.DelimiterStart, doc.url, doc.title, doc.tokens, doc.fetchedUTC, doc.filename,
			strings.TrimRight(doc.body, " \t\n"), opts.DelimiterEnd)

		man.Files = append(man.Files, manifestEntry{
			Filename: doc.filename, Title: doc.title, URL: doc.url,
			Tokens: doc.tokens, FetchedUTC: doc.fetchedUTC,
		})
		man.DocCount++
		man.TotalTokens += uint64(doc.tokens)
	}

	writer := NewAtomicFileWriter(dir)
	if err := writer.Write(opts.OutputFilename, buf.String()); err != nil {
		return 0, 0, err
	}

	if opts.ManifestFilename != "" {
		manifestJSON, err := json.MarshalIndent(man, "", "  ")
		if err != nil {
			return 0, 0, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		if err := writer.Write(opts.ManifestFilename, string(manifestJSON)); err != nil {
			return 0, 0, err
		}
	}

	if opts.PDFEnabled && opts.PDFFilename != "" {
		if pdfBytes, pdfErr := RenderExportToPDF(docs, logger); pdfErr != nil {
			logger.Warn().Err(pdfErr).Msg("pdf export rendering failed, text/manifest export still succeeded")
		} else if writeErr := writer.WriteBytes(opts.PDFFilename, pdfBytes); writeErr != nil {
			logger.Warn().Err(writeErr).Msg("failed to write pdf export, text/manifest export still succeeded")
		}
	}

	return man.DocCount, man.TotalTokens, nil
}

// parseDoc parses one document's front matter and body. The first line
// must be exactly "---", followed by "key: value" lines until a line
// trimmed equals "---"; everything after is the body.
func parseDoc(filename, content string) (parsedDoc, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return parsedDoc{}, false
	}

	doc := parsedDoc{filename: filename}
	i := 1
	closed := false
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "---" {
			closed = true
			i++
			break
		}
		key, value, ok := splitFrontmatterLine(line)
		if !ok {
			continue
		}
		switch key {
		case "url":
			doc.url = value
		case "title":
			doc.title = value
		case "fetched_utc":
			doc.fetchedUTC = value
		case "token_count":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				doc.tokens = uint32(n)
			}
		}
	}

	if !closed || doc.url == "" || doc.title == "" || doc.fetchedUTC == "" {
		return parsedDoc{}, false
	}

	doc.body = strings.Join(lines[i:], "\n")
	return doc, true
}

func splitFrontmatterLine(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return key, value, true
}
