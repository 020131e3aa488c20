package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/storagegate/internal/api/middlewares"
	"github.com/markdave123-py/storagegate/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        log.FieldLogger
}

// NewRouter wires every route onto a chi router.
func NewRouter(cfg *config.Config, objects *handlers.ObjectHandler, health *handlers.HealthHandler, logger log.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(appMiddleware.RequestID)
	r.Use(appMiddleware.AccessLog(logger))
	r.Use(appMiddleware.Metrics)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", appMiddleware.RequestIDHeader},
		ExposedHeaders: []string{appMiddleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/image/*", objects.FetchImage)
	r.Post("/upload", objects.UploadImage)
	r.Post("/upload/video", objects.UploadVideo)
	r.Delete("/delete/*", objects.DeleteObject)
	r.Put("/update/*", objects.UpdateObject)

	return r
}

// NewServer builds the HTTP server around handler.
func NewServer(cfg *config.Config, handler http.Handler, logger log.FieldLogger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: logger}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
