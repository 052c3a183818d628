// Package chi serves the learning run API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/domain"
	logpkg "github.com/kailas-cloud/celearn/internal/logger"
	"github.com/kailas-cloud/celearn/internal/metrics"
	healthuc "github.com/kailas-cloud/celearn/internal/usecase/health"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements the HTTP handlers.
type Server struct {
	runs          RunService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(runs RunService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runs:   runs,
		health: health,
		logger: logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
			sentinelHandler(domain.ErrUnknownIndividual, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrUnsupportedConcept, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrInvalidState, http.StatusConflict, CodeInvalidState),
		},
	}
}

// RouterConfig holds the middleware settings of the router.
type RouterConfig struct {
	APIKeys []string
}

// Router mounts the API with its middleware chain.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/kb", s.GetKB)
	r.Post("/reduce", s.Reduce)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.StartRun)
		r.Get("/", s.ListRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetRun)
			r.Post("/stop", s.StopRun)
			r.Get("/tree", s.GetTree)
			r.Get("/definitions", s.GetDefinitions)
		})
	})
	return r
}

// StartRun handles POST /runs.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Positives) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "at least one positive example is required")
		return
	}

	sum, err := s.runs.Start(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.FromContext(r.Context()).Info("run accepted", zap.String("run_id", sum.ID))

	w.Header().Set("Location", "/runs/"+sum.ID)
	writeJSON(w, http.StatusAccepted, runToResponse(sum))
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := RunListResponse{Items: make([]RunResponse, len(runs))}
	for i, sum := range runs {
		resp.Items[i] = runToResponse(sum)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	sum, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(sum))
}

// StopRun handles POST /runs/{id}/stop.
func (s *Server) StopRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.runs.Stop(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sum, err := s.runs.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runToResponse(sum))
}

// GetTree handles GET /runs/{id}/tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.runs.Tree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(tree))
}

// GetDefinitions handles GET /runs/{id}/definitions?allowance=N.
func (s *Server) GetDefinitions(w http.ResponseWriter, r *http.Request) {
	allowance := 0
	if raw := r.URL.Query().Get("allowance"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "allowance must be an integer")
			return
		}
		allowance = n
	}
	res, err := s.runs.Definitions(r.Context(), chi.URLParam(r, "id"), allowance)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reductionToResponse(res))
}

// Reduce handles POST /reduce.
func (s *Server) Reduce(w http.ResponseWriter, r *http.Request) {
	var req ReduceRequest
	if !s.decode(w, r, &req) {
		return
	}
	items := make([]runuc.ReduceItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = runuc.ReduceItem{Concept: it.Concept, Covered: it.Covered}
	}
	res, err := s.runs.Reduce(items, req.Targets, req.Allowance, req.SortKey)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reductionToResponse(res))
}

// GetKB handles GET /kb.
func (s *Server) GetKB(w http.ResponseWriter, _ *http.Request) {
	k := s.runs.KB()
	st := k.Stats()
	writeJSON(w, http.StatusOK, KBResponse{
		Classes:     st.Classes,
		Roles:       st.Roles,
		Individuals: st.Individuals,
		RoleNames:   k.Roles(),
		TopClasses:  k.TopClasses(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry their message: it only describes the request.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
