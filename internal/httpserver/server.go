// Package httpserver hosts the farm operations API over Echo, including
// middleware, the Prometheus scrape endpoint and graceful shutdown.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/api"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/logging"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/observability"
)

// Server encapsulates the Echo instance and its configuration.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	API      *api.Controller

	metrics   *observability.Metrics
	webLogger *slog.Logger
}

// New initializes the HTTP server with the given settings and datastore.
func New(settings *conf.Settings, ds datastore.Interface, metrics *observability.Metrics) *Server {
	s := &Server{
		Echo:      echo.New(),
		DS:        ds,
		Settings:  settings,
		metrics:   metrics,
		webLogger: logging.ForService("httpserver"),
	}
	if s.webLogger == nil {
		s.webLogger = slog.Default()
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.configureMiddleware()
	s.initRoutes()
	return s
}

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 6,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	s.Echo.Use(s.requestLoggerMiddleware())
}

// requestLoggerMiddleware logs each request and records its latency on
// the request duration histogram. The route pattern, not the raw path, is
// used as the metric label to keep cardinality bounded.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			if s.metrics != nil {
				s.metrics.RequestDuration.
					WithLabelValues(c.Path(), c.Request().Method).
					Observe(elapsed.Seconds())
			}
			if s.Settings.WebServer.Debug {
				s.webLogger.Debug("request",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"status", c.Response().Status,
					"elapsed_ms", elapsed.Milliseconds(),
					"ip", c.RealIP(),
				)
			}
			return err
		}
	}
}

// initRoutes wires the API controller and operational endpoints.
func (s *Server) initRoutes() {
	s.API = api.New(s.Echo, s.DS, s.Settings, s.metrics)

	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}),
		))
	}
}

// Start begins listening and serving HTTP requests in a background
// goroutine. Errors other than a clean shutdown are fatal.
func (s *Server) Start() {
	go func() {
		err := s.Echo.Start(":" + s.Settings.WebServer.Port)
		if err != nil && err != http.ErrServerClosed {
			logging.Fatal("HTTP server failed", "error", err, "port", s.Settings.WebServer.Port)
		}
	}()
	s.webLogger.Info("HTTP server started", "port", s.Settings.WebServer.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}
