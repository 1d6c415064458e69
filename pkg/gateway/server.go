// Package gateway exposes the session core over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/leadline-ai/leadline/pkg/leads"
	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/metering"
	"github.com/leadline-ai/leadline/pkg/session"
)

// SessionRegistry resolves session keys to live sessions, creating them
// on first use.
type SessionRegistry interface {
	Session(key string) *session.Session
}

// Server is the leadline HTTP gateway.
type Server struct {
	controller *session.Controller
	sessions   SessionRegistry
	quota      *metering.Quota
	meters     *metering.MeterStore
	leads      *leads.Store
	httpServer *http.Server
}

// Config wires a gateway server.
type Config struct {
	Addr       string
	Controller *session.Controller
	Sessions   SessionRegistry
	Quota      *metering.Quota
	Meters     *metering.MeterStore
	Leads      *leads.Store
}

func NewServer(cfg Config) *Server {
	s := &Server{
		controller: cfg.Controller,
		sessions:   cfg.Sessions,
		quota:      cfg.Quota,
		meters:     cfg.Meters,
		leads:      cfg.Leads,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/session/{key}", s.handleSessionGet)
	mux.HandleFunc("POST /api/session/{key}/chat", s.handleChat)
	mux.HandleFunc("POST /api/session/{key}/research", s.handleResearch)
	mux.HandleFunc("GET /api/plan", s.handlePlanGet)
	mux.HandleFunc("POST /api/plan/upgrade", s.handleUpgrade)
	mux.HandleFunc("GET /api/leads", s.handleLeadsList)
	mux.HandleFunc("POST /api/leads/import", s.handleLeadsImport)
	mux.HandleFunc("GET /api/usage", s.handleUsage)
	mux.HandleFunc("GET /ws/{key}", s.handleWS)
	return mux
}

// ListenAndServe blocks until the context is canceled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("gateway", "Gateway listening", map[string]any{"addr": s.httpServer.Addr})
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Session(r.PathValue("key"))
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess := s.sessions.Session(r.PathValue("key"))
	err := s.controller.Send(r.Context(), sess, body.Text)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "text is required")
		return
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "session is busy")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Company string `json:"company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess := s.sessions.Session(r.PathValue("key"))
	if err := s.controller.Research(r.Context(), sess, body.Company); err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeError(w, http.StatusConflict, "session is busy")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handlePlanGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.quota.Snapshot())
}

func (s *Server) handleUpgrade(w http.ResponseWriter, _ *http.Request) {
	s.quota.Upgrade()
	logger.InfoC("gateway", "Plan upgraded")
	writeJSON(w, http.StatusOK, s.quota.Snapshot())
}

func (s *Server) handleLeadsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.leads.All())
}

func (s *Server) handleLeadsImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	n, err := s.leads.IngestCSV(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.meters.All())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnCF("gateway", "Response encode failed", map[string]any{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }
