// Package loop drives a services.Registry from a single goroutine.
//
// The registry is not safe for concurrent use. A Loop owns it: every tick it
// calls Update inside a "registry.update" span, and between ticks it runs
// commands submitted with Do. HTTP handlers and config reloads use Do to
// start, stop and pause services without touching the registry from their
// own goroutines.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/bootstrap"
	"github.com/fyrsmithlabs/svclocator/internal/logging"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

var (
	// ErrNotRunning is returned by Do when the loop is not running.
	ErrNotRunning = errors.New("loop is not running")
	// ErrRunning is returned by Tick while Run is active.
	ErrRunning = errors.New("loop is running")
	// ErrAlreadyRan is returned by Run on a loop that has already run.
	ErrAlreadyRan = errors.New("loop already ran")
)

// Config holds loop settings.
type Config struct {
	TickInterval time.Duration
	// StopOnExit stops every service before the registry is cleared.
	StopOnExit bool
}

// Loop is the host tick driver.
type Loop struct {
	reg    *services.Registry
	cfg    Config
	logger *logging.Logger
	tracer trace.Tracer

	mailbox chan command
	stopCh  chan struct{}
	done    chan struct{}

	stopOnce sync.Once
	started  atomic.Bool
	running  atomic.Bool
	frames   atomic.Uint64
}

type command struct {
	ctx    context.Context
	fn     func(*services.Registry) error
	result chan error
}

// New creates a loop for reg. A nil logger or tracer is replaced by a no-op.
func New(reg *services.Registry, cfg Config, logger *logging.Logger, tracer trace.Tracer) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second / 60
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Loop{
		reg:     reg,
		cfg:     cfg,
		logger:  logger.Named("loop"),
		tracer:  tracer,
		mailbox: make(chan command),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run ticks until ctx is cancelled or Stop is called, then tears the
// registry down and returns. A Loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyRan
	}
	l.running.Store(true)
	defer close(l.done)

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	l.logger.Info(ctx, "loop started",
		zap.Duration("tick_interval", l.cfg.TickInterval),
		zap.Int("services", l.reg.Len()))

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return nil
		case <-l.stopCh:
			l.shutdown()
			return nil
		case <-ticker.C:
			l.tick(ctx)
		case cmd := <-l.mailbox:
			cmd.result <- l.exec(cmd.ctx, cmd.fn)
		}
	}
}

// Stop asks a running loop to exit. It does not wait; use Done for that.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Frames returns the number of ticks executed so far.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Do runs fn on the loop goroutine between ticks and returns its error.
// A panic in fn is recovered, logged with the fields carried by ctx and
// returned as an error.
func (l *Loop) Do(ctx context.Context, fn func(*services.Registry) error) error {
	if !l.running.Load() {
		return ErrNotRunning
	}

	cmd := command{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case l.mailbox <- cmd:
	case <-l.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once accepted, the loop always answers before it looks at ctx or
	// stopCh again.
	return <-cmd.result
}

// Tick runs one update on the calling goroutine. It is for driving a
// registry without Run, such as in tests. Do is unavailable until Run starts.
func (l *Loop) Tick(ctx context.Context) error {
	if l.running.Load() {
		return ErrRunning
	}
	l.tick(ctx)
	return nil
}

func (l *Loop) tick(ctx context.Context) {
	frame := l.frames.Add(1)

	ctx, span := l.tracer.Start(logging.WithFrame(ctx, frame), "registry.update",
		trace.WithAttributes(attribute.Int64("loop.frame", int64(frame))))
	defer span.End()

	start := time.Now()
	l.reg.Update()
	elapsed := time.Since(start)

	running := l.reg.Running()
	span.SetAttributes(
		attribute.Int("registry.services", l.reg.Len()),
		attribute.Int("registry.running", running),
	)

	l.logger.Trace(ctx, "frame dispatched",
		zap.Int("running", running),
		zap.Duration("elapsed", elapsed))
	if elapsed > l.cfg.TickInterval {
		l.logger.Debug(ctx, "tick overran interval",
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", l.cfg.TickInterval))
	}
}

func (l *Loop) exec(ctx context.Context, fn func(*services.Registry) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error(ctx, "loop command panicked", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("loop command panicked: %v", p)
		}
	}()
	return fn(l.reg)
}

func (l *Loop) shutdown() {
	l.running.Store(false)

	ctx, span := l.tracer.Start(context.Background(), "registry.teardown",
		trace.WithAttributes(attribute.Bool("stop_on_exit", l.cfg.StopOnExit)))
	defer span.End()

	if err := bootstrap.Teardown(l.reg, l.cfg.StopOnExit); err != nil {
		span.SetStatus(codes.Error, err.Error())
		l.logger.Debug(ctx, "teardown reported guard violations", zap.Error(err))
	}
	l.logger.Info(ctx, "loop stopped", zap.Uint64("frames", l.frames.Load()))
}
