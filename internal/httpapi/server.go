package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avezina/dmhub/internal/config"
	"github.com/avezina/dmhub/internal/narrator"
	"github.com/avezina/dmhub/internal/observability"
	"github.com/avezina/dmhub/internal/store"
)

const serviceVersion = "0.1.0"

type Server struct {
	cfg      config.Server
	store    store.Store
	narrator narrator.Narrator
	hub      *Hub
	metrics  *observability.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// turnsInFlight serializes interaction turns per session id so the
	// at-most-one-active-turn invariant holds across clients.
	turnMu        sync.Mutex
	turnsInFlight map[int64]struct{}
}

func New(cfg config.Server, st store.Store, nar narrator.Narrator, hub *Hub, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:           cfg,
		store:         st,
		narrator:      nar,
		hub:           hub,
		metrics:       metrics,
		logger:        logger,
		turnsInFlight: make(map[int64]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Event subscribers are non-browser clients that authenticate
			// with the API key, so the Origin header carries no signal.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Post("/worlds", s.handleCreateWorld)
		r.Get("/worlds/{id}", s.handleGetWorld)

		r.Post("/campaigns", s.handleCreateCampaign)
		r.Get("/campaigns", s.handleListCampaigns)
		r.Get("/campaigns/{id}", s.handleGetCampaign)
		r.Post("/campaigns/{id}/players", s.handleAddPlayer)
		r.Get("/campaigns/{id}/players", s.handleListPlayers)
		r.Get("/campaigns/{id}/sessions", s.handleListSessions)

		r.Post("/sessions/start", s.handleStartSession)
		r.Post("/sessions/{id}/interact", s.handleInteract)
		r.Post("/sessions/{id}/end", s.handleEndSession)
		r.Get("/sessions/{id}/recap", s.handleGetRecap)
		r.Get("/sessions/{id}/events", s.handleSessionEvents)
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "dmhub",
		"version": serviceVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade hijacks the connection; wrapping the
		// ResponseWriter would break it.
		if strings.HasSuffix(r.URL.Path, "/events") {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) beginTurn(sessionID int64) bool {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if _, busy := s.turnsInFlight[sessionID]; busy {
		return false
	}
	s.turnsInFlight[sessionID] = struct{}{}
	return true
}

func (s *Server) endTurn(sessionID int64) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	delete(s.turnsInFlight, sessionID)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func respondStoreError(w http.ResponseWriter, err error, notFoundCode string) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, notFoundCode, notFoundCode)
		return
	}
	respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
