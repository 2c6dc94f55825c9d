// Package engine runs the staged ingestion pipeline (fetch, decode,
// extract, convert, tokenize, write) for each URL the reducer asks it to
// process, reporting progress and completion back as events.
package engine

import (
	"time"

	"github.com/ternarybob/harvester/internal/reducer"
)

// FailureKind is the closed taxonomy of ways a job can fail. Every stage
// maps its errors into exactly one of these.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidURL
	FailureNetwork
	FailureTimeout
	FailureRedirectLimitExceeded
	FailureHTTPStatus
	FailureTooLarge
	FailureUnsupportedContentType
	FailureDecodeFailure
	FailureProcessingError
	FailureCancelled
	FailureProcessingTimeout
)

func (f FailureKind) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureInvalidURL:
		return "invalid_url"
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureRedirectLimitExceeded:
		return "redirect_limit_exceeded"
	case FailureHTTPStatus:
		return "http_status"
	case FailureTooLarge:
		return "too_large"
	case FailureUnsupportedContentType:
		return "unsupported_content_type"
	case FailureDecodeFailure:
		return "decode_failure"
	case FailureProcessingError:
		return "processing_error"
	case FailureCancelled:
		return "cancelled"
	case FailureProcessingTimeout:
		return "processing_timeout"
	default:
		return "unknown"
	}
}

// StageError pairs a FailureKind with a human-readable detail, the
// engine-internal error type every stage returns. Stage is set only for
// FailureProcessingTimeout, naming the pipeline stage (extract, which
// also covers decode, or convert/tokenize/write) whose budget expired.
type StageError struct {
	Kind   FailureKind
	Detail string
	Stage  string
}

func (e *StageError) Error() string { return e.Kind.String() + ": " + e.Detail }

func errOf(kind FailureKind, detail string) *StageError {
	return &StageError{Kind: kind, Detail: detail}
}

func errOfStage(kind FailureKind, stage, detail string) *StageError {
	return &StageError{Kind: kind, Detail: detail, Stage: stage}
}

// FetchMetadata is carried from the Fetch stage through the rest of the
// pipeline.
type FetchMetadata struct {
	OriginalURL   string
	FinalURL      string
	RedirectCount int
	ContentType   string
	Body          []byte
}

// Command is one instruction from the reducer's effects to the engine.
type CommandKind int

const (
	CommandEnqueue CommandKind = iota
	CommandStop
	CommandExport
)

type Command struct {
	Kind  CommandKind
	JobID reducer.JobID
	URL   string
}

// EngineEvent is reported back from the engine to whatever drives the
// reducer (HTTP handler, MCP tool, cron job).
type EventKind int

const (
	EventProgress EventKind = iota
	EventDone
	EventExportComplete
	EventExportFailed
)

type EngineEvent struct {
	Kind EventKind

	JobID          reducer.JobID
	Stage          reducer.Stage
	Tokens         *uint32
	Bytes          *uint64
	Preview        *string
	PreviewQuality *reducer.PreviewQuality

	Outcome       reducer.JobResultKind
	FailureReason string

	// EventExportComplete / EventExportFailed
	ExportPath   string
	ManifestPath string
	DocCount     int
	TotalTokens  uint64
	Err          error
}

// Config is the engine's runtime configuration, translated from
// common.EngineConfig's string durations into time.Duration. Decode rides
// along with Extract's budget since the original source times them as one
// CPU-bound step; the rest are independent per-stage deadlines.
type Config struct {
	ConnectTimeout      time.Duration
	RequestTimeout      time.Duration
	ExtractTimeout      time.Duration
	ConvertTimeout      time.Duration
	TokenizeTimeout     time.Duration
	WritingTimeout      time.Duration
	RedirectLimit       int
	MaxBytes            int64
	AllowedContentTypes []string
	MaxLinks            int
	OutputDir           string
}
