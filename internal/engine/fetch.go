package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Fetcher downloads one URL under the engine's size, redirect, and
// content-type policy, streaming the body so an oversized page is
// rejected without fully buffering it.
type Fetcher struct {
	transport           http.RoundTripper
	connectTimeout      time.Duration
	requestTimeout      time.Duration
	maxBytes            int64
	redirectLimit       int
	allowedContentTypes []string
	onProgress          func(bytesSoFar int64)
}

func NewFetcher(cfg Config, onProgress func(bytesSoFar int64)) *Fetcher {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &Fetcher{
		transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
		connectTimeout:      connectTimeout,
		requestTimeout:      cfg.RequestTimeout,
		maxBytes:            cfg.MaxBytes,
		redirectLimit:       cfg.RedirectLimit,
		allowedContentTypes: cfg.AllowedContentTypes,
		onProgress:          onProgress,
	}
}

// newClient builds a client scoped to a single Fetch call so the
// redirect counter in CheckRedirect never leaks state across requests.
// Timeout is the overall per-request budget; connect timeout is enforced
// by the transport's dialer. The returned counter is updated in place by
// CheckRedirect and is read back by the caller once the request completes,
// to be recorded on FetchMetadata.RedirectCount.
func (f *Fetcher) newClient() (*http.Client, *int) {
	redirects := new(int)
	client := &http.Client{
		Transport: f.transport,
		Timeout:   f.requestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			*redirects++
			if *redirects > f.redirectLimit {
				return fmt.Errorf("redirect limit exceeded")
			}
			return nil
		},
	}
	return client, redirects
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchMetadata, *StageError) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() {
		return nil, errOf(FailureInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errOf(FailureInvalidURL, err.Error())
	}

	if f.onProgress != nil {
		f.onProgress(0)
	}

	client, redirectCount := f.newClient()
	resp, err := client.Do(req)
	if err != nil {
		return nil, mapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errOf(FailureHTTPStatus, fmt.Sprintf("%d %s", resp.StatusCode, resp.Status))
	}

	if resp.ContentLength > 0 && resp.ContentLength > f.maxBytes {
		return nil, errOf(FailureTooLarge, fmt.Sprintf("content-length %d exceeds max %d", resp.ContentLength, f.maxBytes))
	}

	// The content-type gate runs before any body bytes are read wherever
	// the header declares one, so a rejected page never pays for a full
	// download; only the sniff-on-missing-header fallback needs the body.
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !f.contentTypeAllowed(contentType) {
		return nil, errOf(FailureUnsupportedContentType, contentType)
	}

	body, sErr := f.streamBody(resp.Body)
	if sErr != nil {
		return nil, sErr
	}

	if contentType == "" {
		sniffed := mimetype.Detect(body)
		contentType = sniffed.String()
		if !f.contentTypeAllowed(contentType) {
			return nil, errOf(FailureUnsupportedContentType, contentType)
		}
	}

	return &FetchMetadata{
		OriginalURL:   rawURL,
		FinalURL:      resp.Request.URL.String(),
		RedirectCount: *redirectCount,
		ContentType:   contentType,
		Body:          body,
	}, nil
}

// streamBody reads the response body in chunks, enforcing maxBytes
// cumulatively and reporting progress after each chunk, mirroring the
// original engine's chunked Downloading events.
func (f *Fetcher) streamBody(r io.Reader) ([]byte, *StageError) {
	limited := io.LimitReader(r, f.maxBytes+1)
	buf := make([]byte, 32*1024)
	var out []byte
	var total int64

	for {
		n, err := limited.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > f.maxBytes {
				return nil, errOf(FailureTooLarge, fmt.Sprintf("body exceeds max %d bytes", f.maxBytes))
			}
			out = append(out, buf[:n]...)
			if f.onProgress != nil {
				f.onProgress(total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errOf(FailureNetwork, err.Error())
		}
	}

	return out, nil
}

func (f *Fetcher) contentTypeAllowed(contentType string) bool {
	mimeOnly := contentType
	if idx := strings.IndexByte(mimeOnly, ';'); idx >= 0 {
		mimeOnly = mimeOnly[:idx]
	}
	mimeOnly = strings.ToLower(strings.TrimSpace(mimeOnly))

	for _, allowed := range f.allowedContentTypes {
		if strings.ToLower(allowed) == mimeOnly {
			return true
		}
	}
	return false
}

func mapTransportError(ctx context.Context, err error) *StageError {
	if ctx.Err() != nil {
		return errOf(FailureTimeout, err.Error())
	}
	if strings.Contains(err.Error(), "redirect limit exceeded") {
		return errOf(FailureRedirectLimitExceeded, err.Error())
	}
	return errOf(FailureNetwork, err.Error())
}
