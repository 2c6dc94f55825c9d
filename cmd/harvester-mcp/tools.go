package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSubmitURLsTool returns the submit_urls tool definition.
func createSubmitURLsTool() mcp.Tool {
	return mcp.NewTool("submit_urls",
		mcp.WithDescription("Submit one or more URLs (one per line) for the harvester to fetch and archive as Markdown"),
		mcp.WithString("urls",
			mcp.Required(),
			mcp.Description("Paste buffer of URLs, same format accepted by the web UI's paste box"),
		),
	)
}

// createGetStatusTool returns the get_status tool definition.
func createGetStatusTool() mcp.Tool {
	return mcp.NewTool("get_status",
		mcp.WithDescription("Get the current session status: queued/in-flight/completed jobs, token totals, and the last paste's validation stats"),
	)
}

// createExportTool returns the export tool definition.
func createExportTool() mcp.Tool {
	return mcp.NewTool("export",
		mcp.WithDescription("Request a concatenated export of every completed document (same action as clicking Archive in the web UI); runs asynchronously; completion is announced on the WebSocket feed, not in get_status"),
	)
}
