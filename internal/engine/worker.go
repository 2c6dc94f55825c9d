package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/reducer"
)

// TimestampProvider is the injectable clock the Write stage consults for
// the fetched_utc front-matter field. Swappable in tests so golden
// documents don't depend on wall-clock time.
type TimestampProvider func() time.Time

func SystemTimestampProvider() time.Time { return time.Now().UTC() }

// Engine is the single background worker that drains a WorkQueue of
// commands and turns each Enqueue into a run through the Fetch, Decode,
// Extract, Convert, Tokenize, Write pipeline, reporting progress and
// completion on a single buffered event channel.
type Engine struct {
	cfg    Config
	queue  *WorkQueue
	cancel *CancellationFlag
	events chan EngineEvent
	logger arbor.ILogger

	extractor    func(html string) (*ExtractedDocument, *StageError)
	converter    func(innerHTML, baseURL string, maxLinks int) (*ConversionOutput, *StageError)
	tokenCounter TokenCounter
	now          TimestampProvider

	acceptNew atomic.Bool

	exportOpts ExportOptions
}

// NewEngine builds an Engine ready to Run. Extractor, converter, token
// counter, and timestamp provider all default to the stage package's
// built-ins but may be overridden by a caller (tests substitute a fixed
// clock; a future tokenizer could replace WhitespaceTokenCounter).
func NewEngine(cfg Config, logger arbor.ILogger) *Engine {
	e := &Engine{
		cfg:          cfg,
		queue:        NewWorkQueue(),
		cancel:       &CancellationFlag{},
		events:       make(chan EngineEvent, 1024),
		logger:       logger,
		extractor:    ExtractDocument,
		converter:    ConvertToMarkdown,
		tokenCounter: WhitespaceTokenCounter{},
		now:          SystemTimestampProvider,
		exportOpts:   DefaultExportOptions(),
	}
	e.acceptNew.Store(true)
	return e
}

func (e *Engine) SetExtractor(fn func(html string) (*ExtractedDocument, *StageError)) { e.extractor = fn }
func (e *Engine) SetConverter(fn func(innerHTML, baseURL string, maxLinks int) (*ConversionOutput, *StageError)) {
	e.converter = fn
}
func (e *Engine) SetTokenCounter(tc TokenCounter)         { e.tokenCounter = tc }
func (e *Engine) SetTimestampProvider(now TimestampProvider) { e.now = now }
func (e *Engine) SetExportOptions(opts ExportOptions)     { e.exportOpts = opts }

// Events returns the read side of the engine's event channel.
func (e *Engine) Events() <-chan EngineEvent { return e.events }

// Enqueue admits one job, unless the engine has already been told to
// stop, in which case it completes immediately with Cancelled without
// ever entering the queue.
func (e *Engine) Enqueue(id reducer.JobID, url string) {
	if !e.acceptNew.Load() {
		e.events <- EngineEvent{Kind: EventDone, JobID: id, Outcome: reducer.ResultFailed, FailureReason: FailureCancelled.String()}
		return
	}
	e.queue.Push(Command{Kind: CommandEnqueue, JobID: id, URL: url})
}

// Stop raises the cancellation flag and stops admitting new jobs. The
// flag is observed immediately by the worker loop regardless of queue
// position, so jobs already queued but not yet started are drained with
// a Cancelled completion as soon as the worker reaches them; a job
// already in flight is cancelled at its next stage boundary.
func (e *Engine) Stop() {
	e.acceptNew.Store(false)
	e.cancel.Raise()
}

// RequestExport asks the engine to build the concatenated export once
// the queue is idle.
func (e *Engine) RequestExport() {
	e.queue.Push(Command{Kind: CommandExport})
}

// Close unblocks the worker loop once all already-queued commands have
// drained; call after the session has reached Finished.
func (e *Engine) Close() { e.queue.Close() }

// Run drains the work queue on the calling goroutine until it is
// closed. The caller is expected to invoke this via common.SafeGo on a
// dedicated background goroutine.
func (e *Engine) Run(ctx context.Context) {
	for {
		cmd, ok := e.queue.Pop()
		if !ok {
			close(e.events)
			return
		}

		switch cmd.Kind {
		case CommandEnqueue:
			if e.cancel.IsRaised() {
				e.events <- EngineEvent{Kind: EventDone, JobID: cmd.JobID, Outcome: reducer.ResultFailed, FailureReason: FailureCancelled.String()}
				continue
			}
			e.processJob(ctx, cmd.JobID, cmd.URL)

		case CommandStop:
			// Stop() raises the cancellation flag synchronously so it
			// takes effect the instant it's called, not when its turn
			// comes up in FIFO order; nothing to do if one is ever queued.
			e.cancel.Raise()

		case CommandExport:
			if e.queue.Len() > 0 {
				e.queue.Push(cmd)
				continue
			}
			e.runExport()
		}
	}
}

func (e *Engine) emitProgress(jobID reducer.JobID, stage reducer.Stage, bytes *uint64, tokens *uint32, preview *string) {
	e.emitProgressWithQuality(jobID, stage, bytes, tokens, preview, nil)
}

func (e *Engine) emitProgressWithQuality(jobID reducer.JobID, stage reducer.Stage, bytes *uint64, tokens *uint32, preview *string, quality *reducer.PreviewQuality) {
	e.events <- EngineEvent{Kind: EventProgress, JobID: jobID, Stage: stage, Bytes: bytes, Tokens: tokens, Preview: preview, PreviewQuality: quality}
}

func (e *Engine) completeFailed(jobID reducer.JobID, se *StageError) {
	reason := se.Kind.String()
	switch se.Kind {
	case FailureProcessingTimeout:
		if se.Stage != "" {
			reason = reason + ":" + se.Stage
		}
	case FailureHTTPStatus, FailureTooLarge:
		if se.Detail != "" {
			reason = reason + ":" + se.Detail
		}
	}
	e.logger.Warn().Str("job_id", fmt.Sprintf("%d", jobID)).Str("failure", reason).Msg(se.Detail)
	e.events <- EngineEvent{Kind: EventDone, JobID: jobID, Outcome: reducer.ResultFailed, FailureReason: reason}
}

func (e *Engine) completeSuccess(jobID reducer.JobID, tokens uint32, bytesWritten uint64, preview string, quality reducer.PreviewQuality) {
	t := tokens
	b := bytesWritten
	e.events <- EngineEvent{Kind: EventDone, JobID: jobID, Outcome: reducer.ResultSuccess, Tokens: &t, Bytes: &b, Preview: &preview, PreviewQuality: &quality}
}

// runStageWithTimeout runs fn on its own goroutine and races it against
// timeout, mapping expiry onto FailureProcessingTimeout tagged with the
// stage whose budget expired. CPU-bound stages (decode, extract, convert,
// tokenize) have no context-aware API of their own, so this stands in for
// per-stage context.WithTimeout.
func runStageWithTimeout(timeout time.Duration, stage string, fn func() *StageError) *StageError {
	if timeout <= 0 {
		return fn()
	}
	done := make(chan *StageError, 1)
	go func() { done <- fn() }()
	select {
	case se := <-done:
		return se
	case <-time.After(timeout):
		return errOfStage(FailureProcessingTimeout, stage, "stage "+stage+" exceeded its timeout budget")
	}
}

func (e *Engine) checkCancelled(jobID reducer.JobID) bool {
	if !e.cancel.IsRaised() {
		return false
	}
	e.completeFailed(jobID, errOf(FailureCancelled, "cancellation requested"))
	return true
}

// processJob runs one URL through the full pipeline, emitting progress
// at each boundary and exactly one terminal EventDone.
func (e *Engine) processJob(ctx context.Context, jobID reducer.JobID, rawURL string) {
	jobLogger := e.logger.WithContextWriter(strconv.FormatInt(int64(jobID), 10))
	jobLogger.Info().Str("url", rawURL).Msg("processing job")

	zero := uint64(0)
	e.emitProgress(jobID, reducer.StageDownloading, &zero, nil, nil)

	fetcher := NewFetcher(e.cfg, func(n int64) {
		b := uint64(n)
		e.emitProgress(jobID, reducer.StageDownloading, &b, nil, nil)
	})

	fetchMeta, se := fetcher.Fetch(ctx, rawURL)
	if se != nil {
		e.completeFailed(jobID, se)
		return
	}

	if e.checkCancelled(jobID) {
		return
	}

	var decoded *DecodedHTML
	var extracted *ExtractedDocument
	se = runStageWithTimeout(e.cfg.ExtractTimeout, "extract", func() *StageError {
		d, derr := decodeHTML(fetchMeta.Body, fetchMeta.ContentType)
		if derr != nil {
			return derr
		}
		decoded = d

		ex, eerr := e.extractor(decoded.HTML)
		if eerr != nil {
			return eerr
		}
		extracted = ex
		return nil
	})
	if se != nil {
		e.completeFailed(jobID, se)
		return
	}
	e.emitProgress(jobID, reducer.StageSanitizing, nil, nil, nil)

	if e.checkCancelled(jobID) {
		return
	}

	var converted *ConversionOutput
	se = runStageWithTimeout(e.cfg.ConvertTimeout, "convert", func() *StageError {
		c, cerr := e.converter(extracted.InnerHTML, fetchMeta.FinalURL, e.cfg.MaxLinks)
		if cerr != nil {
			return cerr
		}
		converted = c
		return nil
	})
	if se != nil {
		e.completeFailed(jobID, se)
		return
	}

	preview := preparePreviewContent(converted.Markdown)
	quality := computePreviewQuality(converted.Markdown, len(converted.Links))
	e.emitProgressWithQuality(jobID, reducer.StageConverting, nil, nil, &preview, &quality)

	if e.checkCancelled(jobID) {
		return
	}

	var tokenCount uint32
	se = runStageWithTimeout(e.cfg.TokenizeTimeout, "tokenize", func() *StageError {
		tokenCount = e.tokenCounter.Count(converted.Markdown)
		return nil
	})
	if se != nil {
		e.completeFailed(jobID, se)
		return
	}
	tc := tokenCount
	e.emitProgress(jobID, reducer.StageTokenizing, nil, &tc, nil)

	if e.checkCancelled(jobID) {
		return
	}

	title := extracted.Title
	if title == "" {
		title = "untitled"
	}
	fetchedUTC := e.now().UTC().Format(time.RFC3339)

	var bytesWritten uint64
	se = runStageWithTimeout(e.cfg.WritingTimeout, "write", func() *StageError {
		doc := buildMarkdownDocument(fetchMeta.FinalURL, title, decoded.Encoding, fetchedUTC, tokenCount, converted.Markdown)
		filename := deterministicFilename(title, rawURL)

		writer := NewAtomicFileWriter(e.cfg.OutputDir)
		if err := writer.Write(filename, doc); err != nil {
			return errOf(FailureProcessingError, err.Error())
		}
		bytesWritten = uint64(len(doc))
		return nil
	})
	if se != nil {
		e.completeFailed(jobID, se)
		return
	}

	e.completeSuccess(jobID, tokenCount, bytesWritten, preview, quality)
}

func (e *Engine) runExport() {
	docCount, totalTokens, err := BuildConcatenatedExport(e.cfg.OutputDir, e.exportOpts, e.logger)
	if err != nil {
		e.logger.Warn().Err(err).Msg("export failed")
		e.events <- EngineEvent{Kind: EventExportFailed, Err: err}
		return
	}
	e.events <- EngineEvent{
		Kind:         EventExportComplete,
		ExportPath:   e.exportOpts.OutputFilename,
		ManifestPath: e.exportOpts.ManifestFilename,
		DocCount:     docCount,
		TotalTokens:  totalTokens,
	}
}
