package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/reducer"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e := NewEngine(cfg, arbor.NewLogger())
	e.SetTimestampProvider(func() time.Time {
		return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	})
	return e
}

func drainUntilDone(t *testing.T, e *Engine, jobID reducer.JobID) EngineEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				t.Fatal("event channel closed before job completed")
			}
			if ev.Kind == EventDone && ev.JobID == jobID {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for job completion")
		}
	}
}

func TestEngineHappyPathWritesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>My Page</title></head><body><article><p>hello world</p></article></body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig()
	cfg.OutputDir = dir

	e := newTestEngine(t, cfg)
	go e.Run(context.Background())

	e.Enqueue(1, srv.URL)
	ev := drainUntilDone(t, e, 1)

	assert.Equal(t, reducer.ResultSuccess, ev.Outcome)
	require.NotNil(t, ev.Tokens)
	assert.Equal(t, uint32(2), *ev.Tokens)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "My Page--"))

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello world")
	assert.Contains(t, string(content), "fetched_utc: 2026-07-31T00:00:00Z")

	e.Close()
}

func TestEngineRejectsTooLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 5000)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.OutputDir = t.TempDir()

	e := newTestEngine(t, cfg)
	go e.Run(context.Background())

	e.Enqueue(1, srv.URL)
	ev := drainUntilDone(t, e, 1)

	assert.Equal(t, reducer.ResultFailed, ev.Outcome)
	assert.True(t, strings.HasPrefix(ev.FailureReason, FailureTooLarge.String()+":"))

	e.Close()
}

func TestEngineReportsProcessingTimeoutWithStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><article><p>hi</p></article></body></html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.OutputDir = t.TempDir()
	cfg.ConvertTimeout = 1 * time.Nanosecond

	e := newTestEngine(t, cfg)
	go e.Run(context.Background())

	e.Enqueue(1, srv.URL)
	ev := drainUntilDone(t, e, 1)

	assert.Equal(t, reducer.ResultFailed, ev.Outcome)
	assert.Equal(t, FailureProcessingTimeout.String()+":convert", ev.FailureReason)

	e.Close()
}

func TestEngineCancelsQueuedJobsOnStop(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>slow</body></html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.OutputDir = t.TempDir()
	cfg.RequestTimeout = 5 * time.Second

	e := newTestEngine(t, cfg)
	go e.Run(context.Background())

	e.Enqueue(1, srv.URL) // starts immediately, blocks in the handler
	e.Enqueue(2, srv.URL) // still queued behind job 1

	// Give the worker a moment to pick up job 1 before stopping.
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	close(block) // let job 1's fetch return so the worker can reach job 2

	ev1 := drainUntilDone(t, e, 1)
	assert.Equal(t, reducer.ResultFailed, ev1.Outcome)
	assert.Equal(t, FailureCancelled.String(), ev1.FailureReason)

	ev2 := drainUntilDone(t, e, 2)
	assert.Equal(t, reducer.ResultFailed, ev2.Outcome)
	assert.Equal(t, FailureCancelled.String(), ev2.FailureReason)

	e.Close()
}

func TestEngineBouncesEnqueueAfterStop(t *testing.T) {
	cfg := testConfig()
	cfg.OutputDir = t.TempDir()

	e := newTestEngine(t, cfg)
	go e.Run(context.Background())

	e.Stop()
	e.Enqueue(1, "http://example.com")

	ev := drainUntilDone(t, e, 1)
	assert.Equal(t, reducer.ResultFailed, ev.Outcome)
	assert.Equal(t, FailureCancelled.String(), ev.FailureReason)

	e.Close()
}
