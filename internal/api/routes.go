package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yegors/weekend-fares/internal/flights"
	"github.com/yegors/weekend-fares/internal/metrics"
	"github.com/yegors/weekend-fares/pkg/logger"
)

// Router is the API router
type Router struct {
	handler        *Handler
	middleware     *Middleware
	gatherer       prometheus.Gatherer
	allowedOrigins []string
	logger         *logger.Logger
}

// RouterOptions wires the router's collaborators. Scans may be nil when the
// journal is disabled; Gatherer may be nil to omit /metrics.
type RouterOptions struct {
	Flights        *flights.Service
	Scans          ScanReader
	Metrics        *metrics.APIMetrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter creates a new API router
func NewRouter(opts RouterOptions, log *logger.Logger) *Router {
	return &Router{
		handler:        NewHandler(opts.Flights, opts.Scans, log),
		middleware:     NewMiddleware(opts.Metrics, log),
		gatherer:       opts.Gatherer,
		allowedOrigins: opts.AllowedOrigins,
		logger:         log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.allowedOrigins))

	router.Route("/api", func(router chi.Router) {
		router.Get("/flights", r.handler.GetFlights)
		router.Get("/download", r.handler.DownloadFlights)

		// Scan journal
		router.Get("/scans", r.handler.GetScans)
		router.Get("/scans/{id}/windows", r.handler.GetScanWindows)

		router.Get("/health", r.handler.GetHealth)
	})

	if r.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	return router
}
