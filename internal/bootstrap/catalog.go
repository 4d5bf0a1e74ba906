// Package bootstrap discovers, instantiates and starts services at startup.
//
// Services make themselves discoverable by adding a Factory to the Default
// catalog from an init function:
//
//	func init() {
//	    bootstrap.Add("heartbeat", newHeartbeat)
//	}
//
// The daemon then turns the catalog into candidates, registers the ones
// that want to auto-start, sorts the registry and starts everything:
//
//	cands, err := bootstrap.Default.Candidates(cfg.Services, deps)
//	res := bootstrap.Bootstrap(reg, cands)
package bootstrap

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/config"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

// StatusSource exposes registry status to services that report on it.
// *services.Registry implements it.
type StatusSource interface {
	Statuses() []services.Status
}

// Deps are the shared dependencies handed to every factory.
type Deps struct {
	Logger   *zap.Logger
	Statuses StatusSource
}

// Env is what a factory receives: the shared deps plus its own config.
type Env struct {
	Deps
	Name   string
	Config config.ServiceConfig
}

// Factory creates one service instance.
type Factory func(Env) (services.Service, error)

// Releaser is implemented by services that own a host-managed resource.
// Release is called when the service is unregistered, or immediately when
// bootstrap decides not to register it.
type Releaser interface {
	Release() error
}

// Overrides are per-service config overrides keyed by catalog name.
type Overrides map[string]config.ServiceConfig

// Catalog maps service names to factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Default is the catalog built-in services add themselves to.
var Default = NewCatalog()

// Add registers a factory in the Default catalog.
func Add(name string, f Factory) {
	Default.Add(name, f)
}

// Add registers a factory under name. It panics if name is empty, f is nil
// or name is already taken, since those are programming errors in init code.
func (c *Catalog) Add(name string, f Factory) {
	if name == "" {
		panic("bootstrap: Add with empty name")
	}
	if f == nil {
		panic("bootstrap: Add factory is nil for " + name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.factories[name]; dup {
		panic("bootstrap: Add called twice for " + name)
	}
	c.factories[name] = f
}

// Names returns the catalog names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Candidate is an instantiated service awaiting a bootstrap decision.
type Candidate struct {
	Name      string
	Service   services.Service
	AutoStart bool
	// Release frees the service's host resource. Nil when it owns none.
	Release func() error
}

// Candidates instantiates every factory in name order. Disabled names are
// skipped. AutoStart comes from the service's DoAutoStart unless an override
// sets it. Factory failures are logged and joined into the returned error;
// the remaining factories still run.
func (c *Catalog) Candidates(overrides Overrides, deps Deps) ([]Candidate, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		out  []Candidate
		errs []error
	)
	for _, name := range names {
		override := overrides[name]
		if override.Disabled {
			deps.Logger.Info("service disabled by config", zap.String("service", name))
			continue
		}

		svc, err := c.factories[name](Env{
			Deps:   Deps{Logger: deps.Logger.Named(name), Statuses: deps.Statuses},
			Name:   name,
			Config: override,
		})
		if err != nil {
			deps.Logger.Error("failed to create service", zap.String("service", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("create %s: %w", name, err))
			continue
		}
		if svc == nil {
			errs = append(errs, fmt.Errorf("create %s: %w", name, services.ErrNilService))
			continue
		}

		cand := Candidate{
			Name:      name,
			Service:   svc,
			AutoStart: svc.DoAutoStart(),
		}
		if override.AutoStart != nil {
			cand.AutoStart = *override.AutoStart
		}
		if r, ok := svc.(Releaser); ok {
			cand.Release = r.Release
		}
		out = append(out, cand)
	}

	for name := range overrides {
		if _, ok := c.factories[name]; !ok {
			deps.Logger.Warn("config override matches no catalog service", zap.String("service", name))
		}
	}

	return out, errors.Join(errs...)
}
