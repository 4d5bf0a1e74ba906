// Package services provides the service locator and lifecycle registry for svclocator.
//
// A Registry owns a set of long-lived services keyed by their concrete type.
// It orders them by Priority, drives each one through the
// unstarted → started → paused/resumed → stopped lifecycle, and dispatches a
// single Update call per tick to every running service.
//
// Usage:
//
//	reg := services.NewRegistry(services.WithLogger(logger))
//	_ = reg.Register(audio.NewManager())
//	reg.Sort()
//	_ = reg.StartAllServices()
//
//	// once per frame, from the tick driver
//	reg.Update()
//
//	// typed access
//	mgr, ok := services.Locate[*audio.Manager](reg)
//
// Guard violations (duplicate registration, double start/stop, unknown
// service, pausing a service that never started) are logged at warn level,
// reported to the Observer and returned as *GuardError values. They never
// panic and never abort the caller.
//
// A Registry is not safe for concurrent use. It is driven from a single
// goroutine; see package loop for marshalling calls onto that goroutine.
package services
