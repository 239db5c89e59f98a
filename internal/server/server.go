// Package server exposes the dashboard API: scrape trigger/status, manual
// data imports, and read-side reporting endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/model"
	"github.com/ranch-group/ops-dashboard/internal/pipeline"
	"github.com/ranch-group/ops-dashboard/internal/store"
)

// PipelineRunner is the trigger surface of the scrape pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, businessDate string) *model.RunReport
}

// Options configures the API server.
type Options struct {
	// BasicAuthUser/Pass protect everything except /api/health when set.
	BasicAuthUser string
	BasicAuthPass string
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// TargetPrimePercent for recomputes triggered by imports.
	TargetPrimePercent float64
	// BurdenRate loads payroll taxes and benefits onto raw wages when an
	// imported labor row carries no burden of its own.
	BurdenRate float64
}

type Server struct {
	store  store.Store
	runner PipelineRunner
	guard  *pipeline.Guard
	opts   Options
}

func New(st store.Store, runner PipelineRunner, guard *pipeline.Guard, opts Options) *Server {
	return &Server{store: st, runner: runner, guard: guard, opts: opts}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.handleHealth)

		api.Group(func(priv chi.Router) {
			priv.Use(s.basicAuth)

			priv.Get("/restaurants", s.handleListRestaurants)

			priv.Post("/scrape/trigger", s.handleScrapeTrigger)
			priv.Get("/scrape/status", s.handleScrapeStatus)

			priv.Post("/import/sales", s.handleImportSales)
			priv.Post("/import/labor", s.handleImportLabor)
			priv.Post("/import/food-cost", s.handleImportFoodCost)
			priv.Post("/import/bulk", s.handleImportBulk)

			priv.Get("/dashboard/summary", s.handleDashboardSummary)
			priv.Get("/dashboard/sales", s.handleDashboardSales)
			priv.Get("/dashboard/comparison", s.handleDashboardComparison)
			priv.Get("/dashboard/prime-cost", s.handleDashboardPrimeCost)
		})
	})

	return r
}

// basicAuth is a no-op when no credentials are configured.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.BasicAuthUser == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.BasicAuthUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.opts.BasicAuthPass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="dashboard"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
