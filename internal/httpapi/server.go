// Package httpapi exposes the MAITRI HTTP surface: the astronaut record
// CRUD routes, persona chat, ambient scene generation, and the websocket
// bridge that connects a browser microphone to a live voice session.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maitri-mission/maitri/internal/assistant"
	"github.com/maitri-mission/maitri/internal/chat"
	"github.com/maitri-mission/maitri/internal/health"
	"github.com/maitri-mission/maitri/internal/observe"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
)

// Server wires the MAITRI services into an HTTP handler tree.
type Server struct {
	store      store.Store
	chat       *chat.Service
	scenes     *scene.Generator
	assistants *assistant.Manager
	health     *health.Handler
	logger     *slog.Logger
	metrics    *observe.Metrics
	upgrader   websocket.Upgrader
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used by the HTTP handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealth sets the health handler backing /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// New creates a Server over the given store and services. chatSvc, scenes,
// and assistants may be nil; the corresponding routes then respond 501.
func New(st store.Store, chatSvc *chat.Service, scenes *scene.Generator, assistants *assistant.Manager, opts ...Option) *Server {
	s := &Server{
		store:      st,
		chat:       chatSvc,
		scenes:     scenes,
		assistants: assistants,
		health:     health.New(),
		logger:     slog.Default(),
		metrics:    observe.DefaultMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Habitat tablets connect same-origin; non-browser clients
				// omit the Origin header entirely.
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(observe.Middleware(s.metrics))

	r.Get("/healthz", s.health.Healthz)
	r.Get("/readyz", s.health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/astronauts/{name}", func(r chi.Router) {
		r.Get("/", s.handleGetAstronaut)
		r.Post("/symptoms", s.handleAddSymptom)
		r.Put("/symptoms/{id}/media", s.handleAttachSymptomMedia)
		r.Post("/captain-logs", s.handleAddCaptainLog)
		r.Post("/check-ins", s.handleUpsertCheckIn)
		r.Put("/tasks", s.handleReplaceTasks)
		r.Post("/tasks", s.handleAddTask)
		r.Post("/earthlink", s.handleSendEarthlink)
		r.Put("/earthlink/{id}/viewed", s.handleMarkEarthlinkViewed)

		r.Post("/chat", s.handleChat)
		r.Post("/scene", s.handleScene)
		r.Get("/assistant/ws", s.handleAssistantWS)
	})

	r.Route("/v1/admin/astronauts", func(r chi.Router) {
		r.Get("/", s.handleListAstronauts)
		r.Post("/", s.handleCreateAstronaut)
		r.Route("/{name}", func(r chi.Router) {
			r.Put("/photo", s.handleSetPhoto)
			r.Post("/advice", s.handleAddAdvice)
			r.Post("/procedures", s.handleAddProcedure)
			r.Post("/mass-protocols", s.handleAddMassProtocol)
			r.Post("/earthlink", s.handleUploadEarthlink)
		})
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondStoreError maps store errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrExists):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
	}
}
