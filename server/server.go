// Package server exposes the session over a local control socket. Hosts
// (keybinding daemons, bars, editor plugins) drive the palette through plain
// HTTP POSTs and follow state through a websocket snapshot stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/session"
)

// Server manages the HTTP server over a unix socket.
type Server struct {
	logger  *logrus.Entry
	server  *http.Server
	session *session.Session
	stream  *SnapshotStream
}

// New creates a server driving the given session.
func New(sess *session.Session) *Server {
	return &Server{
		logger:  logging.NewLogger("server"),
		session: sess,
		stream:  NewSnapshotStream(sess),
	}
}

// ListenAndServe starts serving on the given unix socket path. It blocks
// until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket from a previous run.
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.Handler()}
	s.logger.WithField("socket", socketPath).Info("Listening")
	return s.server.Serve(listener)
}

// Handler builds the route table. Exposed separately so tests can drive the
// server through httptest without a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/ws", s.stream.HandleWebSocket)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/selection", s.handleSelection)
	mux.HandleFunc("/api/action", s.handleAction)
	mux.HandleFunc("/api/escape", s.handleEscape)
	mux.HandleFunc("/api/reset", s.handleReset)

	return h2c.NewHandler(mux, &http2.Server{})
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	s.stream.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleGetState returns the current snapshot as JSON.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Snapshot())
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.SetQuery(req.Query)
	writeJSON(w, s.session.Snapshot())
}

type selectionRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.SetSelectionDelta(req.Delta)
	writeJSON(w, s.session.Snapshot())
}

type actionRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.InvokeAction(r.Context(), req.Label); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, s.session.Snapshot())
}

func (s *Server) handleEscape(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.session.HandleEscape()
	writeJSON(w, s.session.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := s.session.Reset(r.Context()); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, s.session.Snapshot())
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// statusForError maps palette error codes onto HTTP statuses. Benign
// conditions stay in the 4xx range so clients can distinguish them from
// daemon faults.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNothingSelected, errors.ErrCodeActionNotFound, errors.ErrCodeSpellNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSessionState, errors.ErrCodeInvalidInput:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Error: err.Error(),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
