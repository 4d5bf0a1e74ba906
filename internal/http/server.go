// Package http provides the HTTP control API for svclocd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/logging"
	"github.com/fyrsmithlabs/svclocator/internal/loop"
	"github.com/fyrsmithlabs/svclocator/internal/services"
	"github.com/fyrsmithlabs/svclocator/internal/telemetry"
)

// Controller runs fn against the registry on the goroutine that owns it.
// *loop.Loop implements it.
type Controller interface {
	Do(ctx context.Context, fn func(*services.Registry) error) error
}

// TelemetryReporter reports the state of the telemetry pipeline.
// *telemetry.Telemetry implements it.
type TelemetryReporter interface {
	Health() telemetry.HealthStatus
	IsEnabled() bool
}

// Server provides HTTP endpoints for svclocd.
type Server struct {
	echo      *echo.Echo
	ctrl      Controller
	logger    *logging.Logger
	config    *Config
	limiter   *clientLimiter
	gatherer  prometheus.Gatherer
	metrics   *HTTPMetrics
	telemetry TelemetryReporter
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// RateLimit is the sustained rate of mutating requests per second per
	// client. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer exposes g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMetrics records OpenTelemetry request metrics.
func WithMetrics(m *HTTPMetrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTelemetry includes the telemetry pipeline state in GET /health.
func WithTelemetry(t TelemetryReporter) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// NewServer creates a new HTTP server.
func NewServer(ctrl Controller, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:      "127.0.0.1",
			Port:      9191,
			RateLimit: 5,
			RateBurst: 10,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		ctrl:   ctrl,
		logger: logger,
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if s.metrics != nil {
		e.Use(s.metrics.MetricsMiddleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// RequestID has already set the response header.
			req := c.Request()
			ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
			ctx = logging.WithLogger(ctx, logger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			duration := time.Since(start)

			logger.Info(ctx, "http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
			)

			return err
		}
	})

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/services", s.handleList)
	v1.GET("/services/:name", s.handleGet)

	var limit []echo.MiddlewareFunc
	if s.limiter != nil {
		limit = append(limit, s.limiter.middleware(s.logger))
	}
	v1.POST("/services/:name/start", s.mutate("start", func(r *services.Registry, name string) error {
		return r.StartByName(name)
	}), limit...)
	v1.POST("/services/:name/stop", s.mutate("stop", func(r *services.Registry, name string) error {
		return r.StopByName(name)
	}), limit...)
	v1.POST("/services/:name/pause", s.mutate("pause", func(r *services.Registry, name string) error {
		return r.PauseByName(name, true)
	}), limit...)
	v1.POST("/services/:name/resume", s.mutate("resume", func(r *services.Registry, name string) error {
		return r.PauseByName(name, false)
	}), limit...)
}

// handleHealth reports registry population and telemetry state. A degraded
// telemetry pipeline does not fail the check.
func (s *Server) handleHealth(c echo.Context) error {
	var resp HealthResponse
	if s.telemetry != nil {
		h := s.telemetry.Health()
		resp.Telemetry = &TelemetryStatus{
			Enabled:  s.telemetry.IsEnabled(),
			Healthy:  h.Healthy,
			Degraded: h.Degraded,
		}
	}

	err := s.ctrl.Do(c.Request().Context(), func(r *services.Registry) error {
		resp.Services = r.Len()
		resp.Running = r.Running()
		return nil
	})
	if err != nil {
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}

	resp.Status = "ok"
	if resp.Telemetry != nil && resp.Telemetry.Degraded {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}

// handleList returns every service status in dispatch order.
func (s *Server) handleList(c echo.Context) error {
	var list []services.Status
	err := s.ctrl.Do(c.Request().Context(), func(r *services.Registry) error {
		list = r.Statuses()
		return nil
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{Services: list})
}

// handleGet returns one service status.
func (s *Server) handleGet(c echo.Context) error {
	name := c.Param("name")

	var (
		st    services.Status
		found bool
	)
	err := s.ctrl.Do(c.Request().Context(), func(r *services.Registry) error {
		st, found = r.StatusByName(name)
		return nil
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: services.ErrNotRegistered.Error(),
			Kind:  string(services.ViolationNotRegistered),
		})
	}
	return c.JSON(http.StatusOK, st)
}

// mutate wraps a lifecycle operation and replies with the resulting status.
func (s *Server) mutate(op string, fn func(r *services.Registry, name string) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		ctx := logging.WithService(c.Request().Context(), name)

		var st services.Status
		err := s.ctrl.Do(ctx, func(r *services.Registry) error {
			if err := fn(r, name); err != nil {
				return err
			}
			st, _ = r.StatusByName(name)
			return nil
		})
		if err != nil {
			logging.FromContext(ctx).Debug(ctx, "lifecycle request rejected",
				zap.String("op", op),
				zap.Error(err))
			return s.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, st)
	}
}

// errorResponse maps guard violations to 404/409 and loop state to 503.
func (s *Server) errorResponse(c echo.Context, err error) error {
	if kind, ok := services.ViolationOf(err); ok {
		status := http.StatusConflict
		if kind == services.ViolationNotRegistered {
			status = http.StatusNotFound
		}
		return c.JSON(status, ErrorResponse{Error: err.Error(), Kind: string(kind)})
	}
	if errors.Is(err, loop.ErrNotRunning) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"})
	}

	s.logger.Error(c.Request().Context(), "request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
