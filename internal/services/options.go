package services

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets the event observer. Use Observers to attach several.
func WithObserver(obs Observer) Option {
	return func(r *Registry) {
		if obs != nil {
			r.observer = obs
		}
	}
}

// WithRand sets the random source used for the equal-priority tie-break in Sort.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) {
		r.rng = rng
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	release     func() error
	catalogName string
}

// WithRelease marks the service as owning a host-managed resource. The
// release func runs when the service is unregistered. Clear does not call it.
func WithRelease(release func() error) RegisterOption {
	return func(o *registerOptions) {
		o.release = release
	}
}

// WithCatalogName records the catalog name the service was created under.
// It is reported in Status.CatalogName and may differ from the display name.
func WithCatalogName(name string) RegisterOption {
	return func(o *registerOptions) {
		o.catalogName = name
	}
}
