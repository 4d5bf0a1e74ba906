package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/bootstrap"
	_ "github.com/fyrsmithlabs/svclocator/internal/builtin"
	"github.com/fyrsmithlabs/svclocator/internal/config"
	"github.com/fyrsmithlabs/svclocator/internal/events"
	httpserver "github.com/fyrsmithlabs/svclocator/internal/http"
	"github.com/fyrsmithlabs/svclocator/internal/logging"
	"github.com/fyrsmithlabs/svclocator/internal/loop"
	"github.com/fyrsmithlabs/svclocator/internal/metrics"
	"github.com/fyrsmithlabs/svclocator/internal/services"
	"github.com/fyrsmithlabs/svclocator/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/svclocator"

// run starts the daemon and blocks until ctx is cancelled.
//
// Startup order:
//  1. Load and validate configuration
//  2. Initialize telemetry with a stdout logger, then the full logger on
//     top of its log provider
//  3. Build observers (Prometheus, NATS events)
//  4. Bootstrap services from the default catalog
//  5. Start the loop, the HTTP server and the config watcher
//
// On cancellation the HTTP server drains first, then the loop tears the
// registry down on its own goroutine.
func run(ctx context.Context, path string) error {
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg, err := loggingConfig(cfg.Logging)
	if err != nil {
		return err
	}

	// Telemetry reports degraded providers before the OTEL bridge exists,
	// so it gets a stdout-only logger.
	bootLogger, err := logging.NewLogger(logCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version),
		telemetry.WithLogger(bootLogger.Underlying().Named("telemetry")))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Export the teardown spans before the providers close.
		_ = tel.ForceFlush(shutdownCtx)
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()
	zl := logger.Underlying()

	logger.Info(ctx, "starting svclocd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("tick_interval", cfg.Loop.TickInterval.Duration()))

	promReg := prometheus.NewRegistry()
	observers := services.Observers{}
	if cfg.Observability.EnableMetrics {
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observers = append(observers, metrics.New(promReg))
	}

	if cfg.Events.Enabled {
		pub, err := events.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix, zl)
		if err != nil {
			// Events are optional; the daemon keeps running without them.
			logger.Warn(ctx, "lifecycle events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			observers = append(observers, pub)
			logger.Info(ctx, "publishing lifecycle events",
				zap.String("url", cfg.Events.URL),
				zap.String("prefix", cfg.Events.SubjectPrefix))
		}
	}

	reg := services.NewRegistry(
		services.WithLogger(zl.Named("registry")),
		services.WithObserver(observers),
	)

	overrides := bootstrap.Overrides(cfg.Services)
	candidates, err := bootstrap.Default.Candidates(overrides, bootstrap.Deps{
		Logger:   zl.Named("service"),
		Statuses: reg,
	})
	if err != nil {
		logger.Warn(ctx, "some services could not be created", zap.Error(err))
	}
	res := bootstrap.Bootstrap(reg, candidates)
	if res.Err != nil {
		logger.Warn(ctx, "bootstrap reported errors", zap.Error(res.Err))
	}
	if err := bootstrap.Reconcile(reg, overrides); err != nil {
		logger.Warn(ctx, "failed to apply paused overrides", zap.Error(err))
	}
	logger.Info(ctx, "services bootstrapped",
		zap.Strings("registered", res.Registered),
		zap.Strings("skipped", res.Skipped))

	driver := loop.New(reg, loop.Config{
		TickInterval: cfg.Loop.TickInterval.Duration(),
		StopOnExit:   cfg.Loop.StopOnExit,
	}, logger, tel.Tracer(instrumentationName))

	srv, err := httpserver.NewServer(driver, logger.Named("http"), &httpserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	},
		httpserver.WithGatherer(promReg),
		httpserver.WithMetrics(httpserver.NewHTTPMetrics(tel.Meter(instrumentationName), zl)),
		httpserver.WithTelemetry(tel),
	)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// The loop outlives ctx long enough for the HTTP server to drain.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()
	loopErr := make(chan error, 1)
	go func() { loopErr <- driver.Run(loopCtx) }()

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start() }()

	startWatcher(ctx, path, driver, logger)

	select {
	case <-ctx.Done():
		logger.Info(ctx, "shutdown requested")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stopLoop()
			<-driver.Done()
			return fmt.Errorf("http server failed: %w", err)
		}
	case err := <-loopErr:
		return fmt.Errorf("loop exited: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http server shutdown failed", zap.Error(err))
	}

	stopLoop()
	if err := <-loopErr; err != nil {
		return fmt.Errorf("loop exited: %w", err)
	}

	logger.Info(shutdownCtx, "svclocd stopped", zap.Uint64("frames", driver.Frames()))
	return nil
}

// startWatcher reapplies paused overrides whenever the config file changes.
// A missing config directory only disables reloading.
func startWatcher(ctx context.Context, path string, driver *loop.Loop, logger *logging.Logger) {
	if path == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			logger.Warn(ctx, "config reload disabled", zap.Error(err))
			return
		}
		path = filepath.Join(dir, "config.yaml")
	}

	w, err := config.NewWatcher(path,
		func(cfg *config.Config) {
			err := driver.Do(ctx, func(reg *services.Registry) error {
				return bootstrap.Reconcile(reg, bootstrap.Overrides(cfg.Services))
			})
			if err != nil {
				logger.Warn(ctx, "failed to apply reloaded config", zap.Error(ignoreCanceled(err)))
				return
			}
			logger.Info(ctx, "config reloaded", zap.String("path", path))
		},
		func(err error) {
			logger.Warn(ctx, "config reload failed", zap.Error(err))
		},
	)
	if err != nil {
		logger.Warn(ctx, "config reload disabled", zap.String("path", path), zap.Error(err))
		return
	}

	go func() {
		if err := ignoreCanceled(w.Run(ctx)); err != nil {
			logger.Warn(ctx, "config watcher stopped", zap.Error(err))
		}
	}()
}

// loggingConfig maps the user-facing logging settings onto logging.Config.
func loggingConfig(c config.LoggingConfig) (*logging.Config, error) {
	cfg := logging.NewDefaultConfig()

	level, err := logging.LevelFromString(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level: %w", err)
	}
	cfg.Level = level
	cfg.Format = c.Format
	cfg.Sampling.Enabled = c.Sampling
	cfg.Output.OTEL = c.OTEL

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	return cfg, nil
}
