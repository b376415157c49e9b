package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/domain"
	"github.com/kailas-cloud/genesis/internal/logger"
	"github.com/kailas-cloud/genesis/internal/metrics"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/genesis/internal/usecase/health"
	"github.com/kailas-cloud/genesis/internal/version"
)

const (
	serviceName     = "genesis"
	maxRequestBytes = 64 << 10
)

var endpoints = []string{
	"POST /chat",
	"GET /interactions",
	"GET /interactions/{id}",
	"GET /health",
	"GET /metrics",
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	chat          ChatService
	health        HealthService
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chat ChatService, health HealthService, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{chat: chat, health: health, logger: l, now: time.Now}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed, true),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeInteractionNotFound, false),
	}
	return s
}

// Router mounts the handlers and the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.Info)
	r.Post("/chat", s.Chat)
	r.Get("/interactions", s.ListInteractions)
	r.Get("/interactions/{id}", s.GetInteraction)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.chat.Ask(r.Context(), chatuc.Request{
		Message:   req.Message,
		UserID:    req.UserID,
		RequestID: chiMiddleware.GetReqID(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatToResponse(res, s.now()))
}

// ListInteractions handles GET /interactions?limit=N.
func (s *Server) ListInteractions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := s.chat.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Interaction{}
	}
	writeJSON(w, http.StatusOK, InteractionListResponse{Interactions: items, Count: len(items)})
}

// GetInteraction handles GET /interactions/{id}.
func (s *Server) GetInteraction(w http.ResponseWriter, r *http.Request) {
	in, err := s.chat.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Service:   serviceName,
		Version:   version.Version,
		Status:    "running",
		Endpoints: endpoints,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler maps a sentinel to a status. detailed exposes the full
// error text, which is only safe for validation errors.
func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
