package reducer

// CompletedJobSnapshot is the externally persistable record of one
// successfully completed job, used to resume a session across restarts
// without re-fetching or re-counting anything.
type CompletedJobSnapshot struct {
	URL    string
	Tokens uint32
	Bytes  uint64
}

// CompletedJobsSnapshot extracts a snapshot for every job that finished
// successfully, in job order.
func (s AppState) CompletedJobsSnapshot() []CompletedJobSnapshot {
	var out []CompletedJobSnapshot
	for _, id := range s.jobOrder {
		rec := s.jobs[id]
		if rec.Stage != StageDone || rec.Outcome != ResultSuccess {
			continue
		}
		snap := CompletedJobSnapshot{URL: rec.URL}
		if rec.Tokens != nil {
			snap.Tokens = *rec.Tokens
		}
		if rec.Bytes != nil {
			snap.Bytes = *rec.Bytes
		}
		out = append(out, snap)
	}
	return out
}

// applyRestore rebuilds the job map from a persisted snapshot, seeding
// SeenURLs so a subsequent paste of the same URLs is a no-op dedup hit
// rather than a fresh job.
func applyRestore(state AppState, snapshots []CompletedJobSnapshot) AppState {
	next := New()
	next.Session = SessionIdle

	for _, snap := range snapshots {
		id := next.NextJobID
		next.NextJobID++

		tokens := snap.Tokens
		bytes := snap.Bytes

		next.jobOrder = append(next.jobOrder, id)
		next.jobs[id] = &JobRecord{
			ID:      id,
			URL:     snap.URL,
			Stage:   StageDone,
			Outcome: ResultSuccess,
			Tokens:  &tokens,
			Bytes:   &bytes,
		}
		next.Metrics.TotalURLs++
		next.Metrics.TotalTokens += uint64(snap.Tokens)
		next.SeenURLs[normalizeURL(snap.URL)] = struct{}{}
	}

	next.Dirty = true
	return next
}
