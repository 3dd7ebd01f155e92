// Package httpserver exposes the coordinator API over HTTP with JSON
// bodies. Each endpoint is an atomic call against the curriculum; error
// kinds map to status codes through errors.StatusCode.
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/atsuhiron/lite-dist2-go/internal/curriculum"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
)

type Server struct {
	cur                   *curriculum.Curriculum
	hub                   *Hub
	mux                   *http.ServeMux
	handler               http.Handler
	logger                *slog.Logger
	defaultTimeoutMinutes int
}

func NewServer(cur *curriculum.Curriculum, hub *Hub, logger *slog.Logger, accessLog zerolog.Logger, defaultTimeoutMinutes int) *Server {
	s := &Server{
		cur:                   cur,
		hub:                   hub,
		mux:                   http.NewServeMux(),
		logger:                logger,
		defaultTimeoutMinutes: defaultTimeoutMinutes,
	}
	s.routes()
	s.handler = recoveryMiddleware(logger, accessLogMiddleware(accessLog, s.mux))
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /ping", s.handlePing)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /status/stream", s.handleStatusStream)
	s.mux.HandleFunc("POST /study/register", s.handleRegisterStudy)
	s.mux.HandleFunc("POST /study/register/bulk", s.handleRegisterStudyBulk)
	s.mux.HandleFunc("GET /study", s.handleFetchStudy)
	s.mux.HandleFunc("POST /trial/reserve", s.handleReserveTrial)
	s.mux.HandleFunc("POST /trial/register", s.handleRegisterTrial)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := lderrors.StatusCode(err)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
