package bootstrap

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/svclocator/internal/services"
)

// Result summarises a Bootstrap run.
type Result struct {
	// Registered lists candidates added to the registry.
	Registered []string
	// Skipped lists candidates that do not auto-start. Their host resources
	// were released.
	Skipped []string
	// Err joins registration, release and start failures.
	Err error
}

// Bootstrap registers every auto-start candidate, releases the rest, sorts
// the registry and starts all registered services.
//
// Each candidate is handled independently: a failed registration or release
// is recorded in Result.Err and the next candidate is still processed.
func Bootstrap(reg *services.Registry, candidates []Candidate) Result {
	var (
		res  Result
		errs []error
	)

	for _, c := range candidates {
		if !c.AutoStart {
			res.Skipped = append(res.Skipped, c.Name)
			if c.Release != nil {
				if err := c.Release(); err != nil {
					errs = append(errs, fmt.Errorf("release %s: %w", c.Name, err))
				}
			}
			continue
		}

		opts := []services.RegisterOption{services.WithCatalogName(c.Name)}
		if c.Release != nil {
			opts = append(opts, services.WithRelease(c.Release))
		}
		if err := reg.Register(c.Service, opts...); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Registered = append(res.Registered, c.Name)
	}

	reg.Sort()
	if err := reg.StartAllServices(); err != nil {
		errs = append(errs, err)
	}

	res.Err = errors.Join(errs...)
	return res
}

// Teardown clears the registry, stopping every service first when stop is
// true. Clear alone invokes no hooks.
func Teardown(reg *services.Registry, stop bool) error {
	var err error
	if stop {
		err = reg.StopAllServices()
	}
	reg.Clear()
	return err
}

// Reconcile pauses or resumes registered services so their state matches
// the Paused override. Overrides are keyed by catalog name; services
// registered outside Bootstrap fall back to their display name. Services
// that are stopped or never started are left alone.
func Reconcile(reg *services.Registry, overrides Overrides) error {
	var errs []error
	for _, st := range reg.Statuses() {
		key := st.CatalogName
		if key == "" {
			key = st.Name
		}
		want := overrides[key].Paused
		switch {
		case want && st.State == services.StateRunning:
			errs = append(errs, reg.PauseByName(st.Name, true))
		case !want && st.State == services.StatePaused:
			errs = append(errs, reg.PauseByName(st.Name, false))
		}
	}
	return errors.Join(errs...)
}
