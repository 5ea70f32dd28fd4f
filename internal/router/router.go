package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shaibs3/pageanalyzer/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler registers its routes on the shared router
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router wires middleware, operational endpoints and the registered handlers
type Router struct {
	router    *mux.Router
	limiter   *rate.Limiter
	telemetry *telemetry.Telemetry
	logger    *zap.Logger

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		limiter:   limiter,
		telemetry: tel,
		logger:    logger.Named("router"),
	}
	r.initMetrics()

	r.router.HandleFunc("/healthz", r.handleHealth).Methods(http.MethodGet)
	if tel != nil {
		r.router.Handle("/metrics", tel.Handler()).Methods(http.MethodGet)
	}

	r.router.Use(r.recoveryMiddleware, r.loggingMiddleware, r.rateLimitMiddleware)
	for _, h := range handlers {
		h.RegisterRoutes(r.router, logger)
	}
	return r
}

func (r *Router) initMetrics() {
	if r.telemetry == nil {
		return
	}
	var err error
	r.requests, err = r.telemetry.Meter.Int64Counter("http_requests",
		metric.WithDescription("HTTP requests by route and status"))
	if err != nil {
		r.logger.Warn("failed to create request counter", zap.Error(err))
	}
	r.duration, err = r.telemetry.Meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"))
	if err != nil {
		r.logger.Warn("failed to create request histogram", zap.Error(err))
	}
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// CreateServer returns an http.Server serving this router on addr
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// page checks may take up to the fetch timeout
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
