package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tour-planner/internal/catalog"
	"tour-planner/internal/config"
	"tour-planner/internal/db"
	"tour-planner/internal/engine"
	"tour-planner/internal/logger"
	"tour-planner/internal/metrics"
)

// History persists completed searches. *db.DB implements it.
type History interface {
	InsertPlan(ctx context.Context, res *engine.Result, maxDays engine.Limit[int], maxBudget engine.Limit[float64]) (int64, error)
	GetHistory(ctx context.Context, limit int) ([]db.PlanRecord, error)
}

// Server is the HTTP API server that connects the catalog provider, the
// optimizer and plan history.
type Server struct {
	cfg      *config.Config
	catalogs *catalog.Provider
	metrics  *metrics.Metrics
	history  History
	mode     engine.ExclusionMode
	started  time.Time
}

// NewServer creates a Server. history may be nil, in which case searches are
// not recorded and GET /api/history answers 501.
func NewServer(cfg *config.Config, catalogs *catalog.Provider, m *metrics.Metrics, history History) *Server {
	mode, err := engine.ParseExclusionMode(cfg.ExclusionMode)
	if err != nil {
		logger.Warn("API", fmt.Sprintf("%v; using %s", err, engine.ExclusionRestore))
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		cfg:      cfg,
		catalogs: catalogs,
		metrics:  m,
		history:  history,
		mode:     mode,
		started:  time.Now(),
	}
}

// Handler returns the HTTP handler with all API routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, corsMiddleware)

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/regions/{id}", s.handleRegion)
	r.Get("/api/regions/{id}/tours", s.handleRegionTours)
	r.Post("/api/package", s.handlePackage)
	r.Post("/api/package/batch", s.handlePackageBatch)
	r.Post("/api/catalog/reload", s.handleReload)
	r.Get("/api/history", s.handleGetHistory)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the id assigned by the request-id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnknownRegion):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrSearchCancelled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		logger.Error("API", fmt.Sprintf("%s %s [%s]: %v", r.Method, r.URL.Path, RequestID(r.Context()), err))
	}
	writeError(w, code, err.Error())
}

func (s *Server) searchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.SearchTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.SearchTimeout)
	}
	return context.WithCancel(parent)
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result := map[string]interface{}{
		"source":         s.cfg.Source,
		"exclusion_mode": s.mode.String(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	cat, err := s.catalogs.Get(r.Context())
	if err != nil {
		result["catalog_loaded"] = false
		result["catalog_error"] = err.Error()
		writeJSON(w, result)
		return
	}
	result["catalog_loaded"] = true
	result["catalog"] = cat.Stats()
	if at := s.catalogs.LoadedAt(); !at.IsZero() {
		result["loaded_at"] = at.Unix()
	}
	writeJSON(w, result)
}

type regionSummary struct {
	catalog.Region
	Tours int `json:"tours"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	regions := cat.Regions()
	out := make([]regionSummary, len(regions))
	for i, reg := range regions {
		out[i] = regionSummary{Region: reg, Tours: len(cat.RegionTours(reg.ID))}
	}
	writeJSON(w, out)
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reg, err := cat.Region(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, regionSummary{Region: reg, Tours: len(cat.RegionTours(reg.ID))})
}

type tourView struct {
	*catalog.Tour
	Attractions []*catalog.Attraction `json:"attractions"`
}

func (s *Server) handleRegionTours(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := cat.Region(id); err != nil {
		s.fail(w, r, err)
		return
	}
	tours := cat.RegionTours(id)
	out := make([]tourView, len(tours))
	for i, t := range tours {
		out[i] = tourView{Tour: t, Attractions: cat.AttractionsOf(t.ID)}
	}
	writeJSON(w, out)
}

func (s *Server) optimizer(ctx context.Context) (*engine.Optimizer, error) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		return nil, err
	}
	return engine.NewOptimizer(cat, engine.WithExclusionMode(s.mode)), nil
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	opt, err := s.optimizer(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := s.searchContext(r.Context())
	defer cancel()
	res, err := opt.GeneratePackageContext(ctx, req.RegionID, req.MaxDays, req.MaxBudget)
	s.metrics.ObserveSearch(res, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.record(r, res, req)
	writeJSON(w, res)
}

type batchRequest struct {
	Requests []engine.Request `json:"requests"`
}

func (s *Server) handlePackageBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if len(body.Requests) == 0 {
		writeError(w, 400, "requests is required")
		return
	}
	opt, err := s.optimizer(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := s.searchContext(r.Context())
	defer cancel()
	results, err := engine.PlanBatch(ctx, opt, body.Requests, s.cfg.BatchConcurrency)
	s.metrics.ObserveBatch(results, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for i, res := range results {
		s.record(r, res, body.Requests[i])
	}
	writeJSON(w, map[string]interface{}{"results": results})
}

// record stores a completed search. Failures are logged, never surfaced.
func (s *Server) record(r *http.Request, res *engine.Result, req engine.Request) {
	if s.history == nil {
		return
	}
	if _, err := s.history.InsertPlan(r.Context(), res, req.MaxDays, req.MaxBudget); err != nil {
		logger.Warn("API", fmt.Sprintf("record plan for %s [%s]: %v", res.RegionID, RequestID(r.Context()), err))
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Reload(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SetCatalog(cat)
	stats := cat.Stats()
	logger.Success("API", fmt.Sprintf("Catalog reloaded: %d regions, %d tours, %d attractions", stats.Regions, stats.Tours, stats.Attractions))
	writeJSON(w, stats)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "plan history needs the sqlite source")
		return
	}
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	records, err := s.history.GetHistory(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, records)
}
