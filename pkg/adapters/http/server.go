package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	flow "github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Engine is the part of the switchboard engine the API drives.
type Engine interface {
	Execute(ctx context.Context, sessionID string, input ...domain.Message) (*domain.Checkpoint, error)
	Checkpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
	Clear(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
	Graph() *flow.Graph
}

var _ Engine = (*switchboard.Engine)(nil)

// Server holds the handler dependencies.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/graph.mmd", s.GetGraphMermaid)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/run", s.RunSession)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
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

// RunRequest is the body of the run endpoints.
// Input is shorthand for a single user message; Messages takes precedence.
type RunRequest struct {
	Input    string           `json:"input,omitempty"`
	Messages []domain.Message `json:"messages,omitempty"`
}

// SessionResponse describes a session after a run or on inspection.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	LastNode  string           `json:"last_node"`
	Done      bool             `json:"done"`
	Step      int              `json:"step"`
	Turn      int              `json:"turn"`
	Messages  []domain.Message `json:"messages"`
	Appended  []domain.Message `json:"appended,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newSessionResponse(cp *domain.Checkpoint) SessionResponse {
	msgs := cp.State.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return SessionResponse{
		SessionID: cp.SessionID,
		LastNode:  cp.LastNode,
		Done:      cp.Done(),
		Step:      cp.Step,
		Turn:      cp.Turn,
		Messages:  msgs,
	}
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, uuid.NewString(), http.StatusCreated)
}

// RunSession handles POST /sessions/{id}/run.
func (s *Server) RunSession(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, sessionID string, status int) {
	input, err := decodeInput(w, r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	before, err := s.Engine.Checkpoint(r.Context(), sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.fail(w, r, err)
		return
	}

	cp, err := s.Engine.Execute(r.Context(), sessionID, input...)
	if err != nil {
		s.logger.Error("Run failed", "session_id", sessionID, "err", err)
		s.fail(w, r, err)
		return
	}

	diff := domain.Diff(before, cp)
	resp := newSessionResponse(cp)
	if diff != nil {
		resp.Appended = diff.Appended
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sessionID, string(bytes))
		}
	}
	writeJSON(w, status, resp)
}

// maxBodySize leaves room for JSON escaping and framing around a full-size message.
func maxBodySize() int64 {
	return 4*int64(domain.MaxInputSize()) + 1024
}

// decodeInput reads an optional RunRequest and sanitizes every message.
func decodeInput(w http.ResponseWriter, r *http.Request) ([]domain.Message, error) {
	var body RunRequest
	if r.Body != nil {
		limit := maxBodySize()
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, fmt.Errorf("%w: request body over %d bytes", domain.ErrInputTooLarge, limit)
			}
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
	}

	msgs := body.Messages
	if len(msgs) == 0 && body.Input != "" {
		msgs = []domain.Message{domain.UserMessage(body.Input)}
	}
	for i := range msgs {
		if msgs[i].Role == "" {
			msgs[i].Role = domain.RoleUser
		}
		if !msgs[i].Role.Valid() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, msgs[i].Role)
		}
		clean, err := domain.SanitizeInput(msgs[i].Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i].Content = clean
		msgs[i].Node = ""
	}
	return msgs, nil
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	cp, err := s.Engine.Checkpoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(cp))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Graph().Describe())
}

// GetGraphMermaid handles GET /graph.mmd. The optional session query
// parameter overlays that session's progress.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session"); id != "" {
		cp, err := s.Engine.Checkpoint(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		overlay = graph.OverlayFromCheckpoint(cp)
	}
	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.Engine.Graph(), overlay)))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "switchboard-http",
		"version": strings.TrimSpace(switchboard.Version),
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		routeErr    *domain.InvalidRouteError
		limitErr    *domain.StepLimitExceededError
		positionErr *domain.UnknownPositionError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptySessionID),
		errors.Is(err, domain.ErrInputTooLarge),
		errors.Is(err, domain.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrListNotSupported):
		return http.StatusNotImplemented
	case errors.As(err, &routeErr), errors.As(err, &limitErr), errors.As(err, &positionErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, statusFor(err), err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
