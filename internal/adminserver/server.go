// Package adminserver exposes a small localhost surface for health checks
// and manual testing: synthetic messages can be injected into the intake
// gate without touching WhatsApp.
package adminserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/noamelf/whatsapp-me/intake"
)

type Server struct {
	logger *slog.Logger
	gate   *intake.Gate
	http   *http.Server
}

func New(logger *slog.Logger, gate *intake.Gate, bind string, port int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, gate: gate}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	s.http = &http.Server{
		Addr:              net.JoinHostPort(bind, strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		s.logger.Info("admin_server_listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("admin_server_stopped", "error", err.Error())
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type simulateRequest struct {
	ChatID     string `json:"chat_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
	IsGroup    bool   `json:"is_group"`
	IsSelfChat bool   `json:"is_self_chat"`
}

type simulateResponse struct {
	Disposition      string `json:"disposition"`
	EventsDetected   int    `json:"events_detected"`
	EventsDispatched int    `json:"events_dispatched"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.ChatID == "" {
		req.ChatID = "simulate@s.whatsapp.net"
	}

	out := s.gate.Handle(r.Context(), intake.Message{
		ChatID:     req.ChatID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		MessageID:  uuid.NewString(),
		Text:       req.Text,
		IsGroup:    req.IsGroup,
		IsSelfChat: req.IsSelfChat,
		SentAt:     time.Now(),
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(simulateResponse{
		Disposition:      string(out.Disposition),
		EventsDetected:   out.EventsDetected,
		EventsDispatched: out.EventsDispatched,
	})
}
