package common

import "github.com/google/uuid"

// NewRunID generates a correlation ID for one ingestion session, stamped
// into every log line and the WebSocket hello message.
func NewRunID() string {
	return "run_" + uuid.New().String()
}
