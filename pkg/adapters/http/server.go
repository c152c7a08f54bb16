package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pangea"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Sessions is the view of live modal sessions the server exposes.
type Sessions interface {
	List() []string
	Snapshot(ctx context.Context, uiID string) (*domain.Snapshot, error)
	Discard(ctx context.Context, uiID string) error
}

// Server serves the HTTP side of a Host.
type Server struct {
	Host     *Host
	Sessions Sessions
	logger   *slog.Logger
	metrics  http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets a structured logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h under GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for host and sessions.
func NewHandler(host *Host, sessions Sessions, opts ...ServerOption) http.Handler {
	s := &Server{
		Host:     host,
		Sessions: sessions,
		logger:   host.logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/modals", func(r chi.Router) {
		r.Get("/", s.ListModals)
		r.Get("/{uiID}", s.GetModal)
		r.Delete("/{uiID}", s.DiscardModal)
		r.Post("/{uiID}/ack/{ackID}", s.AckModal)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ModalView is the response of GET /modals/{uiID}.
type ModalView struct {
	UIID    string          `json:"ui_id"`
	Version int             `json:"version"`
	Tree    json.RawMessage `json:"tree"`
	Live    bool            `json:"live"`
}

// ListModals handles GET /modals.
func (s *Server) ListModals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string][]string{"modals": s.Sessions.List()})
}

// GetModal handles GET /modals/{uiID}.
func (s *Server) GetModal(w http.ResponseWriter, r *http.Request) {
	uiID := chi.URLParam(r, "uiID")

	snap, err := s.Sessions.Snapshot(r.Context(), uiID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Modal not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Snapshot error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetModal failed", "ui_id", uiID, "err", err)
		return
	}

	view := ModalView{UIID: snap.UIID, Version: snap.Version, Tree: json.RawMessage(snap.JSON)}
	if len(view.Tree) == 0 {
		view.Tree = json.RawMessage("null")
	}
	for _, id := range s.Sessions.List() {
		if id == uiID {
			view.Live = true
			break
		}
	}
	s.writeJSON(w, view)
}

// DiscardModal handles DELETE /modals/{uiID}: the client no longer shows it.
func (s *Server) DiscardModal(w http.ResponseWriter, r *http.Request) {
	uiID := chi.URLParam(r, "uiID")

	s.Host.Forget(uiID)
	if err := s.Sessions.Discard(r.Context(), uiID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Modal not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Discard error: %v", err), http.StatusInternalServerError)
		s.logger.Error("DiscardModal failed", "ui_id", uiID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AckModal handles POST /modals/{uiID}/ack/{ackID}.
func (s *Server) AckModal(w http.ResponseWriter, r *http.Request) {
	uiID := chi.URLParam(r, "uiID")
	ackID := chi.URLParam(r, "ackID")

	if !s.Host.Ack(uiID, ackID) {
		http.Error(w, "Unknown ack", http.StatusNotFound)
		s.logger.Warn("AckModal: unknown ack", "ui_id", uiID, "ack_id", ackID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "pangea-http",
		"version": strings.TrimSpace(pangea.Version),
	})
}

// SubscribeEvents handles GET /events (SSE). With ?ui_id= only events of
// that modal are streamed; without it every modal's events are.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	uiID := r.URL.Query().Get("ui_id")
	ch, cancel := s.Host.streams.Subscribe(uiID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: client subscribed", "ui_id", uiID)
	fmt.Fprintf(w, "event: %s\ndata: connected\n\n", EventPing)
	for _, ev := range s.Host.Replay(uiID) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "ui_id", uiID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
