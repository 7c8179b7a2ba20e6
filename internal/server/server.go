// Package server is the HTTP surface of the bot: the Twilio webhook, the
// debugger webhook and the health check.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"krishi-mitra/internal/domain"
)

type handler interface {
	HandleMessage(ctx context.Context, msg domain.InboundMessage) string
}

// Server .
type Server struct {
	logger *slog.Logger
	h      *chi.Mux
	srv    *http.Server
	logic  handler
}

// New .
func New(logger *slog.Logger, addr string, logic handler) *Server {
	h := chi.NewMux()
	s := &Server{
		logger: logger,
		h:      h,
		srv:    &http.Server{Addr: addr, Handler: h},
		logic:  logic,
	}
	s.addRoutes()

	return s
}

func (s *Server) addRoutes() {
	s.h.Get("/", s.getHealth)
	s.h.Post("/twilio/chat", s.postChat)
	s.h.Post("/twilio/error", s.postDebuggerEvent)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.h
}

// Start .
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Stop .
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
