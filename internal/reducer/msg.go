package reducer

// Msg is the closed set of intents the reducer understands. Implemented
// as a tagged union via a Kind discriminator plus payload fields, the
// idiomatic Go stand-in for the original's enum-of-structs.
type MsgKind int

const (
	MsgInputChanged MsgKind = iota
	MsgUrlsSubmitted
	MsgStopFinishClicked
	MsgArchiveClicked
	MsgJobProgress
	MsgJobDone
	MsgJobSelected
	MsgRestoreCompletedJobs
	MsgTick
	MsgNoOp
)

type Msg struct {
	Kind MsgKind

	// MsgInputChanged
	Text string

	// MsgJobProgress / MsgJobDone
	JobID          JobID
	Stage          Stage
	Tokens         *uint32
	Bytes          *uint64
	Preview        *string
	PreviewQuality *PreviewQuality

	// MsgJobDone
	Outcome       JobResultKind
	FailureReason string

	// MsgJobSelected
	SelectedJob JobID

	// MsgRestoreCompletedJobs
	Snapshots []CompletedJobSnapshot
}

// InputChanged updates the pending paste buffer without submitting it.
func InputChanged(text string) Msg { return Msg{Kind: MsgInputChanged, Text: text} }

// UrlsSubmitted parses and enqueues the current input buffer. UrlsPasted
// from the original design is not a distinct message: callers that want
// the old one-shot paste behavior issue InputChanged followed by
// UrlsSubmitted, exactly as this constructor pair does.
func UrlsSubmitted() Msg { return Msg{Kind: MsgUrlsSubmitted} }

// UrlsPasted is a convenience pair equivalent to InputChanged(text) then
// UrlsSubmitted(), for callers (the HTTP and MCP surfaces) that only ever
// submit a paste atomically.
func UrlsPasted(text string) []Msg {
	return []Msg{InputChanged(text), UrlsSubmitted()}
}

func StopFinishClicked() Msg { return Msg{Kind: MsgStopFinishClicked} }

func ArchiveClicked() Msg { return Msg{Kind: MsgArchiveClicked} }

func JobProgress(id JobID, stage Stage, tokens *uint32, bytes *uint64, preview *string, quality *PreviewQuality) Msg {
	return Msg{Kind: MsgJobProgress, JobID: id, Stage: stage, Tokens: tokens, Bytes: bytes, Preview: preview, PreviewQuality: quality}
}

func JobDone(id JobID, outcome JobResultKind, failureReason string, tokens *uint32, bytes *uint64, preview *string, quality *PreviewQuality) Msg {
	return Msg{
		Kind: MsgJobDone, JobID: id, Stage: StageDone, Outcome: outcome,
		FailureReason: failureReason, Tokens: tokens, Bytes: bytes, Preview: preview, PreviewQuality: quality,
	}
}

func JobSelected(id JobID) Msg { return Msg{Kind: MsgJobSelected, SelectedJob: id} }

func RestoreCompletedJobs(snapshots []CompletedJobSnapshot) Msg {
	return Msg{Kind: MsgRestoreCompletedJobs, Snapshots: snapshots}
}

func Tick() Msg { return Msg{Kind: MsgTick} }

func NoOp() Msg { return Msg{Kind: MsgNoOp} }
