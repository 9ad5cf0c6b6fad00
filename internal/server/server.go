// Package server exposes the vehicle catalog over a small JSON API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"vehicle-catalog/internal/config"
	"vehicle-catalog/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(cfg config.ServerConfig, handler *Handler, tracer trace.Tracer) *Server {
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(handler, NewMetrics(handler.Size), tracer),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler, metrics *Metrics, tracer trace.Tracer) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(tracer))
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware(metrics))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/vehicles", func(r chi.Router) {
		r.Get("/", handler.ListVehicles)
		r.Post("/", handler.CreateVehicle)
		r.Post("/save", handler.SaveCatalog)
		r.Get("/{plate}", handler.GetVehicle)
		r.Patch("/{plate}", handler.UpdateVehicleDate)
		r.Delete("/{plate}", handler.DeleteVehicle)
	})

	return r
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
