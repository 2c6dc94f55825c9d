package reducer

// TokenLimit is the soft budget the UI warns against when the session's
// accumulated token count exceeds it. Matches the original core's
// TOKEN_LIMIT constant.
const TokenLimit uint64 = 200_000

// JobRowView is one row of the job table as rendered to the UI.
type JobRowView struct {
	JobID          JobID
	URL            string
	Stage          Stage
	Outcome        JobResultKind
	Tokens         *uint32
	Bytes          *uint64
	ContentPreview *string
	NavHeavy       bool
}

// AppViewModel is the fully derived, read-only projection of AppState
// that a UI (or the HTTP/WebSocket/MCP surfaces in this module) renders
// from.
type AppViewModel struct {
	Session         SessionState
	QueuedURLs      int
	JobCount        int
	Jobs            []JobRowView
	LastPasteStats  *LastPasteStats
	Dirty           bool
	TotalTokens     uint64
	TokenLimit      uint64
	SelectedJob     JobID
	SelectedPreview *string
}

// View projects state into an AppViewModel.
func (s AppState) View() AppViewModel {
	jobs := s.Jobs()
	rows := make([]JobRowView, 0, len(jobs))
	queued := 0
	for _, j := range jobs {
		if j.Stage == StageQueued {
			queued++
		}
		row := JobRowView{
			JobID: j.ID, URL: j.URL, Stage: j.Stage, Outcome: j.Outcome,
			Tokens: j.Tokens, Bytes: j.Bytes, ContentPreview: j.ContentPreview,
		}
		if j.PreviewQuality != nil {
			row.NavHeavy = j.PreviewQuality.NavHeavy()
		}
		rows = append(rows, row)
	}

	var selectedPreview *string
	if rec := s.Job(s.UI.SelectedJob); rec != nil {
		selectedPreview = rec.ContentPreview
	}

	return AppViewModel{
		Session:         s.Session,
		QueuedURLs:      queued,
		JobCount:        len(jobs),
		Jobs:            rows,
		LastPasteStats:  s.UI.LastPasteStats,
		Dirty:           s.Dirty,
		TotalTokens:     s.Metrics.TotalTokens,
		TokenLimit:      TokenLimit,
		SelectedJob:     s.UI.SelectedJob,
		SelectedPreview: selectedPreview,
	}
}
