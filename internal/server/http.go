package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/common"
	"github.com/ternarybob/harvester/internal/reducer"
	"github.com/ternarybob/harvester/internal/session"
)

// Server is the HTTP+WebSocket front end over one Session: submit URLs,
// request stop-finish, request an archive export, and read live status,
// mirroring the original project's mux-plus-handlers server shape.
type Server struct {
	cfg     *common.Config
	logger  arbor.ILogger
	session *session.Session
	hub     *Hub
	server  *http.Server
}

func New(cfg *common.Config, sess *session.Session, hub *Hub, logger arbor.ILogger) *Server {
	s := &Server{cfg: cfg, logger: logger, session: sess, hub: hub}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/archive", s.handleArchive)
	return mux
}

func (s *Server) Start() error {
	s.logger.Info().Str("address", s.server.Addr).Msg("harvester HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down harvester HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.session.ViewModel())
}

type submitRequest struct {
	URLs string `json:"urls"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.session.DispatchPaste(req.URLs)
	writeJSON(w, http.StatusOK, s.session.ViewModel())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.session.Dispatch(reducer.StopFinishClicked())
	writeJSON(w, http.StatusOK, s.session.ViewModel())
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.session.Dispatch(reducer.ArchiveClicked())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "archive requested"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
