package server

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/reducer"
)

// connLog is a standalone phuslu/log logger scoped to WebSocket
// connection lifecycle only, mirroring the dual-logger split the
// original project draws between its structured arbor logger and
// phuslu/log inside the WebSocket writer.
var connLog = plog.Logger{
	Level:  plog.InfoLevel,
	Writer: &plog.ConsoleWriter{Writer: os.Stdout},
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local ingestion tool; no cross-origin concern
	},
}

// wsMessage is the envelope every broadcast frame is wrapped in.
type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans the live view model out to every connected browser tab,
// matching the original project's WebSocketHandler shape but scoped to
// the reducer's AppViewModel ("view" frames), plus a "hello" frame on
// connect and "export" frames for export results.
type Hub struct {
	logger      arbor.ILogger
	runID       string
	mu          sync.RWMutex
	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
}

func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		logger:      logger,
		clients:     make(map[*websocket.Conn]bool),
		clientMutex: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// SetRunID stamps the correlation ID sent in the "hello" frame every
// newly connected client receives.
func (h *Hub) SetRunID(runID string) {
	h.mu.Lock()
	h.runID = runID
	h.mu.Unlock()
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client disconnects. The harvester UI is broadcast-only: the
// server never expects messages back over this socket.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	total := len(h.clients)
	runID := h.runID
	h.mu.Unlock()
	connLog.Info().Int("total", total).Msg("websocket client connected")

	if err := conn.WriteJSON(wsMessage{Type: "hello", Payload: map[string]string{"run_id": runID}}); err != nil {
		connLog.Warn().Err(err).Msg("failed to send websocket hello")
	}

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()
		conn.Close()
		connLog.Info().Int("remaining", remaining).Msg("websocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("websocket read error")
			}
			break
		}
	}
}

// BroadcastViewModel sends the current view model to every connected
// client. A failed write is logged and skipped for that client (it will
// be reaped on its next failed read).
func (h *Hub) BroadcastViewModel(vm reducer.AppViewModel) {
	h.broadcast(wsMessage{Type: "view", Payload: vm})
}

// BroadcastExportResult notifies clients that an export finished, since
// it isn't represented in the view model itself.
func (h *Hub) BroadcastExportResult(path string, docCount int, totalTokens uint64, failReason string) {
	payload := map[string]interface{}{
		"export_path":  path,
		"doc_count":    docCount,
		"total_tokens": totalTokens,
	}
	if failReason != "" {
		payload["error"] = failReason
	}
	h.broadcast(wsMessage{Type: "export", Payload: payload})
}

func (h *Hub) broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to send view model to client")
		}
	}
}
