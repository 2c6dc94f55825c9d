package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/common"
	"github.com/ternarybob/harvester/internal/engine"
	"github.com/ternarybob/harvester/internal/reducer"
	"github.com/ternarybob/harvester/internal/snapshot"
)

type fakeHub struct {
	mu       sync.Mutex
	views    []reducer.AppViewModel
	exportOK bool
}

func (f *fakeHub) BroadcastViewModel(vm reducer.AppViewModel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, vm)
}

func (f *fakeHub) BroadcastExportResult(path string, docCount int, totalTokens uint64, failReason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportOK = failReason == ""
}

func (f *fakeHub) lastView() reducer.AppViewModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[len(f.views)-1]
}

func newTestSession(t *testing.T) (*Session, *fakeHub) {
	t.Helper()
	logger := arbor.NewLogger()

	cfg := engine.Config{
		ConnectTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		ExtractTimeout:      2 * time.Second,
		ConvertTimeout:      2 * time.Second,
		TokenizeTimeout:     2 * time.Second,
		WritingTimeout:      2 * time.Second,
		RedirectLimit:       5,
		MaxBytes:            1 << 20,
		AllowedContentTypes: []string{"text/html"},
		MaxLinks:            5000,
		OutputDir:           t.TempDir(),
	}
	eng := engine.NewEngine(cfg, logger)
	go eng.Run(context.Background())
	t.Cleanup(eng.Close)

	store, err := snapshot.Open(common.SnapshotConfig{Path: filepath.Join(t.TempDir(), "snap")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hub := &fakeHub{}
	s := New(eng, store, hub, logger)
	go s.PumpEvents()

	return s, hub
}

func TestDispatchPasteEnqueuesAndBroadcasts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>T</title></head><body>hi there</body></html>"))
	}))
	defer srv.Close()

	s, hub := newTestSession(t)
	s.DispatchPaste(srv.URL)

	require.Eventually(t, func() bool {
		vm := s.ViewModel()
		return len(vm.Jobs) == 1 && vm.Jobs[0].Outcome == reducer.ResultSuccess
	}, 3*time.Second, 10*time.Millisecond)

	vm := hub.lastView()
	assert.Equal(t, 1, vm.JobCount)
}

func TestRestoreSeedsStateFromSnapshot(t *testing.T) {
	logger := arbor.NewLogger()
	cfg := engine.Config{OutputDir: t.TempDir(), MaxLinks: 5000, AllowedContentTypes: []string{"text/html"}}
	eng := engine.NewEngine(cfg, logger)
	go eng.Run(context.Background())
	t.Cleanup(eng.Close)

	storePath := filepath.Join(t.TempDir(), "snap")
	store, err := snapshot.Open(common.SnapshotConfig{Path: storePath}, logger)
	require.NoError(t, err)
	require.NoError(t, store.Save([]reducer.CompletedJobSnapshot{{URL: "http://example.com/x", Tokens: 5, Bytes: 50}}))
	require.NoError(t, store.Close())

	store2, err := snapshot.Open(common.SnapshotConfig{Path: storePath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })

	hub := &fakeHub{}
	s := New(eng, store2, hub, logger)
	require.NoError(t, s.Restore())

	vm := s.ViewModel()
	require.Len(t, vm.Jobs, 1)
	assert.Equal(t, "http://example.com/x", vm.Jobs[0].URL)
	assert.Equal(t, reducer.ResultSuccess, vm.Jobs[0].Outcome)
}
