package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/harvester/internal/reducer"
)

// formatSubmitResult summarizes a paste's validation stats for the caller.
func formatSubmitResult(vm reducer.AppViewModel) string {
	var b strings.Builder
	b.WriteString("# URLs submitted\n\n")

	if vm.LastPasteStats != nil {
		stats := vm.LastPasteStats
		fmt.Fprintf(&b, "- Enqueued: %d\n", stats.Enqueued)
		fmt.Fprintf(&b, "- Duplicates skipped: %d\n", stats.Skipped)
	}
	fmt.Fprintf(&b, "- Jobs waiting in queue: %d\n", vm.QueuedURLs)
	fmt.Fprintf(&b, "- Total jobs this session: %d\n", vm.JobCount)

	return b.String()
}

// formatStatus renders the full view model as a markdown status report.
func formatStatus(vm reducer.AppViewModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Harvester status\n\n")
	fmt.Fprintf(&b, "- Session state: %s\n", vm.Session.String())
	fmt.Fprintf(&b, "- Queued (not yet started): %d\n", vm.QueuedURLs)
	fmt.Fprintf(&b, "- Total jobs: %d\n", vm.JobCount)
	fmt.Fprintf(&b, "- Total tokens: %d / %d\n", vm.TotalTokens, vm.TokenLimit)
	if vm.LastPasteStats != nil {
		fmt.Fprintf(&b, "- Last paste: %d enqueued, %d duplicates skipped\n", vm.LastPasteStats.Enqueued, vm.LastPasteStats.Skipped)
	}
	b.WriteString("\n")

	if len(vm.Jobs) == 0 {
		b.WriteString("No jobs submitted yet.\n")
		return b.String()
	}

	b.WriteString("| URL | Stage | Outcome | Tokens |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, j := range vm.Jobs {
		tokens := "-"
		if j.Tokens != nil {
			tokens = fmt.Sprintf("%d", *j.Tokens)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", j.URL, j.Stage.String(), j.Outcome.String(), tokens)
	}

	return b.String()
}
