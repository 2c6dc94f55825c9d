package reducer

import (
	"strings"
)

// Update is the reducer's single entry point: a pure, total function
// from (state, msg) to (state', effects). No I/O, no clock reads.
func Update(state AppState, msg Msg) (AppState, []Effect) {
	switch msg.Kind {
	case MsgInputChanged:
		return applyInputChanged(state, msg.Text)
	case MsgUrlsSubmitted:
		return applyUrlsSubmitted(state)
	case MsgStopFinishClicked:
		return applyStopFinishClicked(state)
	case MsgArchiveClicked:
		return applyArchiveClicked(state)
	case MsgJobProgress:
		return applyProgress(state, msg), nil
	case MsgJobDone:
		return applyDone(state, msg), nil
	case MsgJobSelected:
		return applySelect(state, msg.SelectedJob), nil
	case MsgRestoreCompletedJobs:
		if len(state.jobs) != 0 {
			return state, nil
		}
		return applyRestore(state, msg.Snapshots), nil
	case MsgTick, MsgNoOp:
		return state, nil
	default:
		return state, nil
	}
}

func applyInputChanged(state AppState, text string) (AppState, []Effect) {
	if state.UI.InputBuffer == text {
		return state, nil
	}
	next := state.clone()
	next.UI.InputBuffer = text
	next.Dirty = true
	return next, nil
}

// parseURLs splits the raw paste buffer into trimmed, non-empty lines,
// preserving input order.
func parseURLs(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// normalizeURL produces the dedup key for a URL: trim, lowercase ASCII,
// strip one trailing slash.
func normalizeURL(raw string) string {
	n := strings.TrimSpace(raw)
	n = strings.ToLower(n)
	n = strings.TrimSuffix(n, "/")
	return n
}

func applyUrlsSubmitted(state AppState) (AppState, []Effect) {
	urls := parseURLs(state.UI.InputBuffer)
	if len(urls) == 0 {
		return state, nil
	}

	if state.Session == SessionFinishing || state.Session == SessionFinished {
		return state, nil
	}

	next := state.clone()

	var unique []string
	skipped := 0
	for _, u := range urls {
		norm := normalizeURL(u)
		if next.IsURLSeen(norm) {
			skipped++
			continue
		}
		next.SeenURLs[norm] = struct{}{}
		unique = append(unique, u)
	}

	next.UI.InputBuffer = ""
	next.Dirty = true

	if len(unique) == 0 {
		next.UI.LastPasteStats = &LastPasteStats{Enqueued: 0, Skipped: skipped}
		return next, nil
	}

	shouldStart := next.Session == SessionIdle
	if shouldStart {
		next.Session = SessionRunning
	}

	var effects []Effect
	if shouldStart {
		effects = append(effects, startSession())
	}

	for _, u := range unique {
		id := next.NextJobID
		next.NextJobID++
		next.jobOrder = append(next.jobOrder, id)
		next.jobs[id] = &JobRecord{ID: id, URL: u, Stage: StageQueued}
		next.Metrics.TotalURLs++
		effects = append(effects, enqueueURL(id, u))
	}

	next.UI.LastPasteStats = &LastPasteStats{Enqueued: len(unique), Skipped: skipped}
	return next, effects
}

func applyStopFinishClicked(state AppState) (AppState, []Effect) {
	if state.Session != SessionRunning {
		return state, nil
	}
	next := state.clone()
	next.Session = SessionFinishing
	next.Dirty = true
	return next, []Effect{stopFinish()}
}

func applyArchiveClicked(state AppState) (AppState, []Effect) {
	return state, []Effect{archiveRequested()}
}

// saturatingAddSub replaces prev with next in total, without going
// negative if prev was never actually counted (e.g. first report).
func saturatingAddSub(total uint64, prev, next uint64) uint64 {
	if prev > total {
		return uint64(next)
	}
	total -= prev
	return total + next
}

func applyProgress(state AppState, msg Msg) AppState {
	rec, ok := state.jobs[msg.JobID]
	if !ok {
		return state
	}

	changed := false
	next := state.clone()
	nr := next.jobs[msg.JobID]

	if nr.Stage != msg.Stage {
		nr.Stage = msg.Stage
		changed = true
	}
	if msg.Tokens != nil {
		var prev uint64
		if rec.Tokens != nil {
			prev = uint64(*rec.Tokens)
		}
		next.Metrics.TotalTokens = saturatingAddSub(next.Metrics.TotalTokens, prev, uint64(*msg.Tokens))
		nr.Tokens = msg.Tokens
		changed = true
	}
	if msg.Bytes != nil {
		nr.Bytes = msg.Bytes
		changed = true
	}
	if msg.Preview != nil {
		nr.ContentPreview = msg.Preview
		changed = true
	}
	if msg.PreviewQuality != nil {
		nr.PreviewQuality = msg.PreviewQuality
		changed = true
	}

	if !changed {
		return state
	}
	next.Dirty = true
	return next
}

func applyDone(state AppState, msg Msg) AppState {
	rec, ok := state.jobs[msg.JobID]
	if !ok {
		return state
	}

	next := state.clone()
	nr := next.jobs[msg.JobID]
	nr.Stage = StageDone
	nr.Outcome = msg.Outcome
	nr.FailureReason = msg.FailureReason

	if msg.Tokens != nil {
		var prev uint64
		if rec.Tokens != nil {
			prev = uint64(*rec.Tokens)
		}
		next.Metrics.TotalTokens = saturatingAddSub(next.Metrics.TotalTokens, prev, uint64(*msg.Tokens))
		nr.Tokens = msg.Tokens
	}
	if msg.Bytes != nil {
		nr.Bytes = msg.Bytes
	}

	if msg.Outcome == ResultFailed {
		nr.ContentPreview = nil
		nr.PreviewQuality = nil
	} else {
		if msg.Preview != nil {
			nr.ContentPreview = msg.Preview
		}
		if msg.PreviewQuality != nil {
			nr.PreviewQuality = msg.PreviewQuality
		}
	}

	next.Dirty = true

	if next.Session == SessionFinishing && allJobsDone(next) {
		next.Session = SessionFinished
	}

	return next
}

func allJobsDone(s AppState) bool {
	for _, id := range s.jobOrder {
		if s.jobs[id].Stage != StageDone {
			return false
		}
	}
	return true
}

func applySelect(state AppState, id JobID) AppState {
	if state.UI.SelectedJob == id {
		return state
	}
	next := state.clone()
	next.UI.SelectedJob = id
	next.Dirty = true
	return next
}
