package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"krishi-mitra/internal/domain"
)

// postChat is the inbound Twilio webhook: a form-encoded message in, a
// TwiML envelope out. Whatever happened inside, the response is a valid
// TwiML message with status 200 so the provider delivers a reply.
func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	numMedia, err := strconv.Atoi(r.PostFormValue("NumMedia"))
	if err != nil {
		numMedia = 0
	}

	msg := domain.InboundMessage{
		From:     r.PostFormValue("From"),
		Body:     r.PostFormValue("Body"),
		NumMedia: numMedia,
		MediaURL: r.PostFormValue("MediaUrl0"),
	}

	reply := s.logic.HandleMessage(r.Context(), msg)

	s.logger.Info("sending TwiML response", slog.String("to", msg.From), slog.String("reply", reply))

	writeTwiML(w, reply)
}

// postDebuggerEvent receives Twilio debugger callbacks. The debugger
// often posts form-encoded bodies, sometimes JSON; be permissive, log
// what arrived, never fail.
func (s *Server) postDebuggerEvent(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{}

	ctype := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ctype, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			raw, _ := io.ReadAll(io.LimitReader(r.Body, 2000))
			s.logger.Error("debugger payload parse failed",
				slog.String("err", err.Error()),
				slog.String("raw", string(raw)))
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.logger.Error("debugger form parse failed", slog.String("err", err.Error()))
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
	}

	s.logger.Info("debugger event received", slog.Any("payload", payload))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "KrishiMitra backend is running!",
	})
}
