// Package reducer implements the pure, deterministic application core:
// a single Update function maps (AppState, Msg) to (AppState, []Effect).
// Nothing in this package touches the filesystem, the network, or the
// clock - that is the engine's job.
package reducer

// JobID identifies one ingestion job within a session. Assigned in
// parse-order, never reused.
type JobID int64

// SessionState tracks the lifecycle of one ingestion run.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRunning
	SessionFinishing
	SessionFinished
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionFinishing:
		return "finishing"
	case SessionFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Stage is the pipeline position of one job. Stages advance monotonically
// in the order declared here, except that any stage may jump directly to
// Done with a Failed outcome.
type Stage int

const (
	StageQueued Stage = iota
	StageDownloading
	StageSanitizing
	StageConverting
	StageTokenizing
	StageWriting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageDownloading:
		return "downloading"
	case StageSanitizing:
		return "sanitizing"
	case StageConverting:
		return "converting"
	case StageTokenizing:
		return "tokenizing"
	case StageWriting:
		return "writing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// JobResultKind is the terminal outcome of a completed job.
type JobResultKind int

const (
	ResultNone JobResultKind = iota
	ResultSuccess
	ResultFailed
)

func (k JobResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultFailed:
		return "failed"
	default:
		return "pending"
	}
}

// PreviewQuality carries lightweight structural signals about a
// converted document's body, used by the UI to flag navigation-heavy
// pages whose extracted "article" is mostly links.
type PreviewQuality struct {
	HeadingCount int
	LinkDensity  float64 // links per word of body text
}

// NavHeavy reports whether the page's extracted content looks more like
// a navigation shell than an article: link density above 0.3 links per
// word of body text.
func (q PreviewQuality) NavHeavy() bool {
	return q.LinkDensity > 0.3
}

// JobRecord is the reducer's view of one job.
type JobRecord struct {
	ID             JobID
	URL            string // original input string, pre-normalization
	Stage          Stage
	Outcome        JobResultKind
	FailureReason  string
	Tokens         *uint32
	Bytes          *uint64
	ContentPreview *string
	PreviewQuality *PreviewQuality
}

// LastPasteStats reports the outcome of the most recent paste-and-submit.
type LastPasteStats struct {
	Enqueued int
	Skipped  int
}

// uiState holds transient input/selection state, not persisted across
// restarts.
type uiState struct {
	InputBuffer    string
	SelectedJob    JobID
	LastPasteStats *LastPasteStats
}

type metricsState struct {
	TotalTokens uint64
	TotalURLs   int
}

// AppState is the reducer's complete state. Treated as immutable: Update
// always returns a new value built by copying and then mutating the
// copy, never the caller's state.
type AppState struct {
	Session   SessionState
	jobOrder  []JobID // insertion order, ascending JobID
	jobs      map[JobID]*JobRecord
	SeenURLs  map[string]struct{}
	UI        uiState
	Metrics   metricsState
	NextJobID JobID
	Dirty     bool
}

// New returns a freshly initialized, empty AppState.
func New() AppState {
	return AppState{
		Session:   SessionIdle,
		jobs:      make(map[JobID]*JobRecord),
		SeenURLs:  make(map[string]struct{}),
		NextJobID: 1,
	}
}

// clone returns a deep-enough copy of s suitable for building the next
// state: the job map and its records are copied so in-place edits to the
// returned value never alias the original.
func (s AppState) clone() AppState {
	next := s
	next.jobOrder = append([]JobID(nil), s.jobOrder...)
	next.jobs = make(map[JobID]*JobRecord, len(s.jobs))
	for id, rec := range s.jobs {
		copied := *rec
		next.jobs[id] = &copied
	}
	next.SeenURLs = make(map[string]struct{}, len(s.SeenURLs))
	for u := range s.SeenURLs {
		next.SeenURLs[u] = struct{}{}
	}
	return next
}

// Jobs returns job records in ascending JobID order.
func (s AppState) Jobs() []*JobRecord {
	out := make([]*JobRecord, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, s.jobs[id])
	}
	return out
}

// Job returns the record for id, or nil if it does not exist.
func (s AppState) Job(id JobID) *JobRecord {
	return s.jobs[id]
}

// IsURLSeen reports whether normalized has already been enqueued this
// session (or restored from a snapshot).
func (s AppState) IsURLSeen(normalized string) bool {
	_, ok := s.SeenURLs[normalized]
	return ok
}

// ConsumeDirty reads and clears the dirty flag in one step.
func (s AppState) ConsumeDirty() (AppState, bool) {
	was := s.Dirty
	s.Dirty = false
	return s, was
}
