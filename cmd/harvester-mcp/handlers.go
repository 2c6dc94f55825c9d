package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/reducer"
	"github.com/ternarybob/harvester/internal/session"
)

// handleSubmitURLs implements the submit_urls tool.
func handleSubmitURLs(sess *session.Session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireString("urls")
		if err != nil || urls == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent("Error: urls parameter is required")},
			}, nil
		}

		sess.DispatchPaste(urls)
		vm := sess.ViewModel()

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(formatSubmitResult(vm))},
		}, nil
	}
}

// handleGetStatus implements the get_status tool.
func handleGetStatus(sess *session.Session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vm := sess.ViewModel()
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(formatStatus(vm))},
		}, nil
	}
}

// handleExport implements the export tool. Export runs asynchronously on
// the engine; this only requests it, matching the HTTP /api/archive
// endpoint's fire-and-forget behavior.
func handleExport(sess *session.Session, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess.Dispatch(reducer.ArchiveClicked())
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("Export requested; it will appear in the output directory once the engine finishes writing it.")},
		}, nil
	}
}
