// Package api exposes the engine over HTTP: posting ingestion, lifecycle
// actions, the executor pull protocol and the realtime event stream.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/events"
	"github.com/jobber-ai/jobber-core/internal/workspace"
)

type Server struct {
	workspace *workspace.Workspace
	broker    *events.Broker
	logger    *zap.Logger
	mux       *http.ServeMux
}

func New(ws *workspace.Workspace, broker *events.Broker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		workspace: ws,
		broker:    broker,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/jobs/discover", s.handleDiscover)
	s.mux.HandleFunc("POST /api/jobs/{id}/{action}", s.handleJobAction)
	s.mux.HandleFunc("GET /api/runner/pending", s.handlePendingTasks)
	s.mux.HandleFunc("POST /api/runner/result", s.handleRunnerResult)
	s.mux.HandleFunc("GET /ws", s.handleSubscribe)
	s.mux.HandleFunc("OPTIONS /", s.handlePreflight)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("api server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	writeCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":         s.workspace.Postings(),
		"scores":       s.workspace.Scores(),
		"applications": s.workspace.Applications(),
		"pendingTasks": s.workspace.PendingTaskCount(),
	})
}

func writeCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
