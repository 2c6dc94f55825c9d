package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ConnectTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		ExtractTimeout:      2 * time.Second,
		ConvertTimeout:      2 * time.Second,
		TokenizeTimeout:     2 * time.Second,
		WritingTimeout:      2 * time.Second,
		RedirectLimit:       5,
		MaxBytes:            1024,
		AllowedContentTypes: []string{"text/html"},
		MaxLinks:            5000,
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	meta, err := f.Fetch(context.Background(), srv.URL)
	require.Nil(t, err)
	assert.Contains(t, string(meta.Body), "hi")
	assert.Equal(t, "text/html; charset=utf-8", meta.ContentType)
}

func TestFetchRejectsUnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NotNil(t, err)
	assert.Equal(t, FailureUnsupportedContentType, err.Kind)
}

func TestFetchRejectsDeclaredUnsupportedContentTypeBeforeStreamingBody(t *testing.T) {
	// The body is far larger than MaxBytes; if the content-type gate ran
	// after streaming, this would surface FailureTooLarge instead.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(strings.Repeat("a", 5000)))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NotNil(t, err)
	assert.Equal(t, FailureUnsupportedContentType, err.Kind)
}

func TestFetchRecordsRedirectCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/next", http.StatusFound)
			return
		}
		if r.URL.Path == "/next" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()
	target := srv.URL + "/start"

	f := NewFetcher(testConfig(), nil)
	meta, err := f.Fetch(context.Background(), target)
	require.Nil(t, err)
	assert.Equal(t, 2, meta.RedirectCount)
	assert.True(t, strings.HasSuffix(meta.FinalURL, "/final"))
}

func TestFetchRejectsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NotNil(t, err)
	assert.Equal(t, FailureHTTPStatus, err.Kind)
}

func TestFetchRejectsTooLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 5000)))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NotNil(t, err)
	assert.Equal(t, FailureTooLarge, err.Kind)
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), "not-a-url")
	require.NotNil(t, err)
	assert.Equal(t, FailureInvalidURL, err.Kind)
}

func TestFetchReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	var reported []int64
	f := NewFetcher(testConfig(), func(n int64) { reported = append(reported, n) })
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Nil(t, err)
	assert.Equal(t, int64(0), reported[0])
	assert.Greater(t, len(reported), 1)
}
