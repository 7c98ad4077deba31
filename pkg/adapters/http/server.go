package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/aretw0/homeview/pkg/runner"
	"github.com/aretw0/homeview/pkg/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App is the part of the home screen the HTTP surface drives.
type App interface {
	State() domain.ActionState
	Seq() uint64
	DispatchThen(msg domain.Message, then store.Listener)
	Subscribe(fn store.Listener) *store.Subscription
	Cards() query.Lifecycle[domain.CardsPayload]
	RequestRefresh(ctx context.Context) bool
	Home() string
}

var _ App = (*homeview.App)(nil)

// Server serves the home screen state over HTTP.
type Server struct {
	App     App
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets a custom structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server and starts broadcasting state diffs.
// Call Close to stop listening to the store.
func NewServer(app App, opts ...Option) *Server {
	s := &Server{App: app, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(app, s.logger)
	return s
}

// Close detaches the server from the store and ends open event streams.
func (s *Server) Close() {
	s.Streams.Close()
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Post("/dispatch", s.Dispatch)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/cards", s.GetCards)
	r.Post("/cards/refresh", s.RefreshCards)
	r.Get("/home", s.GetHome)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CardsResponse is the body of GET /cards.
type CardsResponse struct {
	Phase string        `json:"phase"`
	Items []domain.Card `json:"items,omitempty"`
	Error string        `json:"error,omitempty"`
}

func cardsResponse(l query.Lifecycle[domain.CardsPayload]) CardsResponse {
	resp := CardsResponse{Phase: l.Phase.String()}
	switch l.Phase {
	case query.Resolved:
		resp.Items = l.Data.Items
		if resp.Items == nil {
			resp.Items = []domain.Card{}
		}
	case query.Failed:
		resp.Error = l.Err.Error()
	}
	return resp
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "homeview-http",
		"version": strings.TrimSpace(homeview.Version),
	})
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.App.State())
}

// Dispatch handles the POST /dispatch request. The body is a flat message:
// {"type": "UPDATE_NAME", "name": "Ada"}.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		s.logger.Warn("Dispatch: invalid request body", "err", err)
		return
	}

	switch msg.Type {
	case domain.TagOpenMenu, domain.TagCloseMenu:
		msg.Payload = nil
	case domain.TagUpdateName:
		raw, _ := msg.Lookup(domain.KeyName)
		name, ok := raw.(string)
		if !ok {
			http.Error(w, `UPDATE_NAME requires a string "name"`, http.StatusBadRequest)
			return
		}
		clean, err := runner.SanitizeName(name)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid name: %v", err), http.StatusBadRequest)
			s.logger.Warn("Dispatch: name rejected", "err", err, "size", len(name))
			return
		}
		msg = domain.UpdateName(clean)
	default:
		http.Error(w, fmt.Sprintf("Unknown message type %q", msg.Type), http.StatusBadRequest)
		return
	}

	// Answer with the snapshot this message produced, even when another
	// goroutine is draining the store and reduces it for us.
	result := make(chan domain.ActionState, 1)
	s.App.DispatchThen(msg, func(state domain.ActionState) { result <- state })

	select {
	case state := <-result:
		s.writeJSON(w, http.StatusOK, state)
	case <-r.Context().Done():
	}
}

// GetCards handles the GET /cards request.
func (s *Server) GetCards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, cardsResponse(s.App.Cards()))
}

// RefreshCards handles the POST /cards/refresh request. The query outlives
// the request.
func (s *Server) RefreshCards(w http.ResponseWriter, r *http.Request) {
	if !s.App.RequestRefresh(context.WithoutCancel(r.Context())) {
		http.Error(w, "Refresh unavailable: shutting down", http.StatusServiceUnavailable)
		return
	}
	s.logger.Debug("RefreshCards: requested")
	s.writeJSON(w, http.StatusAccepted, cardsResponse(s.App.Cards()))
}

// GetHome handles the GET /home request.
func (s *Server) GetHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.App.Home())
}

// SubscribeEvents handles the GET /events request (SSE). The first data
// event carries the whole snapshot; later ones carry only what changed.
// ?watch=name,action limits the stream to diffs touching those fields.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	initial := domain.Diff(nil, s.App.State())
	initial.Seq = s.App.Seq()
	if b, err := json.Marshal(initial); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", b)
	}
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected")
			return
		case diff, ok := <-ch:
			if !ok {
				return
			}
			if !matches(diff, watchList) {
				continue
			}
			b, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func matches(diff *domain.StateDiff, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "name":
			if diff.Name != nil {
				return true
			}
		case "action":
			if diff.Action != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("HTTP: response encode failed", "err", err)
	}
}
