// Package session is the glue between the pure reducer and the
// impure engine: it owns the serialized AppState, drives Update on
// every incoming Msg, translates the reducer's Effects into engine
// commands, and folds engine events back into reducer Msgs - the single
// calling goroutine the reducer's Update is written against.
package session

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/engine"
	"github.com/ternarybob/harvester/internal/reducer"
	"github.com/ternarybob/harvester/internal/snapshot"
)

// Broadcaster is implemented by the WebSocket hub; kept as an interface
// here so session has no import-time dependency on net/http transport.
type Broadcaster interface {
	BroadcastViewModel(reducer.AppViewModel)
	BroadcastExportResult(path string, docCount int, totalTokens uint64, failReason string)
}

// Session serializes all access to one AppState behind a mutex,
// standing in for the reducer's single-threaded "UI thread" in a world
// where HTTP handlers, the WebSocket reader, and MCP tool calls all run
// on their own goroutines.
type Session struct {
	mu     sync.Mutex
	state  reducer.AppState
	engine *engine.Engine
	store  *snapshot.Store
	hub    Broadcaster
	logger arbor.ILogger
}

func New(eng *engine.Engine, store *snapshot.Store, hub Broadcaster, logger arbor.ILogger) *Session {
	return &Session{
		state:  reducer.New(),
		engine: eng,
		store:  store,
		hub:    hub,
		logger: logger,
	}
}

// Restore loads any persisted completed-job snapshots and folds them
// into the initial state before the session starts accepting traffic.
func (s *Session) Restore() error {
	snaps, err := s.store.Load()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, _ = reducer.Update(s.state, reducer.RestoreCompletedJobs(snaps))
	s.consumeDirtyAndBroadcastLocked()
	return nil
}

// Dispatch applies one Msg to the current state, runs its effects
// against the engine, and broadcasts the resulting view model if state
// changed.
func (s *Session) Dispatch(msg reducer.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(msg)
}

// DispatchPaste is a convenience for the HTTP/MCP surfaces, which only
// ever submit a whole paste buffer atomically.
func (s *Session) DispatchPaste(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range reducer.UrlsPasted(text) {
		s.dispatchLocked(msg)
	}
}

func (s *Session) dispatchLocked(msg reducer.Msg) {
	next, effects := reducer.Update(s.state, msg)
	s.state = next
	for _, eff := range effects {
		s.runEffect(eff)
	}
	s.consumeDirtyAndBroadcastLocked()
}

func (s *Session) runEffect(eff reducer.Effect) {
	switch eff.Kind {
	case reducer.EffectStartSession:
		// Nothing to do: the engine is already running; EffectEnqueueURL
		// effects follow immediately in the same batch.
	case reducer.EffectEnqueueURL:
		s.engine.Enqueue(eff.JobID, eff.URL)
	case reducer.EffectStopFinish:
		s.engine.Stop()
	case reducer.EffectArchiveRequested:
		s.engine.RequestExport()
	}
}

func (s *Session) consumeDirtyAndBroadcastLocked() {
	next, dirty := s.state.ConsumeDirty()
	s.state = next
	if dirty && s.hub != nil {
		s.hub.BroadcastViewModel(s.state.View())
	}
}

// ViewModel returns the current view model for a one-shot HTTP status
// read (as opposed to the pushed WebSocket stream).
func (s *Session) ViewModel() reducer.AppViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.View()
}

// PumpEvents drains the engine's event channel until it is closed,
// folding each EngineEvent into the matching reducer Msg. Intended to
// run on its own goroutine for the lifetime of the process.
func (s *Session) PumpEvents() {
	for ev := range s.engine.Events() {
		switch ev.Kind {
		case engine.EventProgress:
			s.Dispatch(reducer.JobProgress(ev.JobID, ev.Stage, ev.Tokens, ev.Bytes, ev.Preview, ev.PreviewQuality))

		case engine.EventDone:
			s.Dispatch(reducer.JobDone(ev.JobID, ev.Outcome, ev.FailureReason, ev.Tokens, ev.Bytes, ev.Preview, ev.PreviewQuality))
			if ev.Outcome == reducer.ResultSuccess {
				s.persistSnapshot()
			}

		case engine.EventExportComplete:
			if s.hub != nil {
				s.hub.BroadcastExportResult(ev.ExportPath, ev.DocCount, ev.TotalTokens, "")
			}

		case engine.EventExportFailed:
			if s.hub != nil {
				reason := ""
				if ev.Err != nil {
					reason = ev.Err.Error()
				}
				s.hub.BroadcastExportResult("", 0, 0, reason)
			}
		}
	}
}

func (s *Session) persistSnapshot() {
	s.mu.Lock()
	snaps := s.state.CompletedJobsSnapshot()
	s.mu.Unlock()

	if err := s.store.Save(snaps); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist completed-job snapshot")
	}
}
