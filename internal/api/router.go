package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/truthkeeper/internal/api/handlers"
	mw "github.com/Harshitk-cp/truthkeeper/internal/api/middleware"
	"github.com/Harshitk-cp/truthkeeper/internal/buildconfig"
	"github.com/Harshitk-cp/truthkeeper/internal/config"
	"github.com/Harshitk-cp/truthkeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Workspaces   *service.WorkspaceService
	Reaper       *service.ReaperService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// Options configures the HTTP surface. A zero RateLimitRPS disables rate
// limiting and an empty APIKey disables auth.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	DefaultStrict  bool
}

// OptionsFromConfig reads Options from the environment.
func OptionsFromConfig() Options {
	return Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		DefaultStrict:  config.DefaultStrict(),
	}
}

func NewApp(ws *service.WorkspaceService, opts Options, logger *zap.Logger) *App {
	reaper := service.NewReaperService(ws, logger)
	reaper.SetIdleTTL(config.WorkspaceIdleTTL())
	reaper.SetInterval(config.ReaperInterval())

	workspaceHandler := handlers.NewWorkspaceHandler(ws, opts.DefaultStrict)
	beliefHandler := handlers.NewBeliefHandler(ws)
	justificationHandler := handlers.NewJustificationHandler(ws)

	r := chi.NewRouter()

	app := &App{
		Router:     r,
		Workspaces: ws,
		Reaper:     reaper,
		startTime:  time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	// Health and metrics (no auth)
	r.Get("/health", healthHandler())
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", workspaceHandler.Create)
			r.Get("/", workspaceHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", workspaceHandler.Get)
				r.Delete("/", workspaceHandler.Delete)
				r.Post("/consistency", workspaceHandler.Consistency)
				r.Post("/scenario", workspaceHandler.Scenario)
				r.Post("/justifications", justificationHandler.Create)

				r.Route("/beliefs", func(r chi.Router) {
					r.Post("/", beliefHandler.Create)
					r.Get("/{name}", beliefHandler.Get)
					r.Put("/{name}", beliefHandler.SetValidity)
					r.Delete("/{name}", beliefHandler.Delete)
				})
			})
		})
	})

	return app
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			body[k] = v
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"workspaces":     app.Workspaces.Count(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
