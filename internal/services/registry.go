package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

// ErrNilService is returned when a nil service is registered.
var ErrNilService = errors.New("service is nil")

// Registry maps service type identity to a lifecycle descriptor and keeps
// the descriptors in dispatch order.
//
// A Registry must only be used from one goroutine at a time.
type Registry struct {
	entries []*descriptor
	index   map[reflect.Type]*descriptor

	logger   *zap.Logger
	observer Observer
	rng      *rand.Rand

	// scratch holds the dispatch snapshot reused across Update calls.
	scratch  []*descriptor
	updating bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index:    make(map[reflect.Type]*descriptor),
		logger:   zap.NewNop(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a service. The service is not started.
func (r *Registry) Register(svc Service, opts ...RegisterOption) error {
	if svc == nil {
		r.logger.Warn("cannot register a nil service")
		return ErrNilService
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := keyOf(svc)
	if existing, ok := r.lookup(key, false); ok {
		return r.violation(ViolationDuplicateRegistration, existing)
	}

	d := newDescriptor(svc, o)
	r.entries = append(r.entries, d)
	r.index[key] = d

	r.logger.Info("registered service",
		zap.String("service", d.name),
		zap.String("id", d.id),
		zap.Stringer("priority", d.service.GetPriority()),
		zap.Bool("host_managed", d.release != nil))
	r.emit(EventRegistered, d)
	return nil
}

// Unregister removes a service and releases its host-managed resource.
// The stop hook is not invoked.
func (r *Registry) Unregister(svc Service) error {
	return r.unregister(keyOf(svc))
}

// Start starts a registered service that has not already started.
func (r *Registry) Start(svc Service) error {
	return r.start(keyOf(svc))
}

// Stop stops a registered service that has not already stopped.
func (r *Registry) Stop(svc Service) error {
	return r.stop(keyOf(svc))
}

// Pause pauses (true) or resumes (false) a service that has started.
// Repeating the same state re-invokes the pause hook.
func (r *Registry) Pause(svc Service, paused bool) error {
	return r.pause(keyOf(svc), paused)
}

// Locate returns the registered instance with the same concrete type as svc.
func (r *Registry) Locate(svc Service) (Service, bool) {
	d, ok := r.lookup(keyOf(svc), true)
	if !ok {
		return nil, false
	}
	return d.service, true
}

// TryGetStatus returns the lifecycle flags of the service with the same
// concrete type as svc. found is false, with a zero Status, when absent.
func (r *Registry) TryGetStatus(svc Service) (status Status, found bool) {
	d, ok := r.lookup(keyOf(svc), true)
	if !ok {
		return Status{}, false
	}
	return d.status(), true
}

// StartAllServices starts every registered service in current order.
// Every service is visited; rejected starts are joined into the result.
func (r *Registry) StartAllServices() error {
	var errs []error
	for _, d := range slices.Clone(r.entries) {
		if d.removed {
			continue
		}
		if err := r.start(d.key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAllServices stops every registered service in current order.
func (r *Registry) StopAllServices() error {
	var errs []error
	for _, d := range slices.Clone(r.entries) {
		if d.removed {
			continue
		}
		if err := r.stop(d.key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sort orders services by ascending priority. Services sharing a priority
// get a fresh random relative order on every call, so no code can come to
// depend on ordering within a tier.
func (r *Registry) Sort() {
	swap := func(i, j int) { r.entries[i], r.entries[j] = r.entries[j], r.entries[i] }
	if r.rng != nil {
		r.rng.Shuffle(len(r.entries), swap)
	} else {
		rand.Shuffle(len(r.entries), swap)
	}
	slices.SortStableFunc(r.entries, byPriority)

	if ce := r.logger.Check(zap.DebugLevel, "sorted services"); ce != nil {
		names := make([]string, len(r.entries))
		for i, d := range r.entries {
			names[i] = d.name
		}
		ce.Write(zap.Strings("order", names))
	}
}

// Clear drops every descriptor without invoking any hook or releasing host
// resources. Callers that need stop hooks must call StopAllServices first.
func (r *Registry) Clear() {
	count := len(r.entries)
	for _, d := range r.entries {
		d.removed = true
	}
	r.entries = nil
	r.index = make(map[reflect.Type]*descriptor)

	r.logger.Info("cleared services", zap.Int("count", count))
	r.observer.LifecycleEvent(Event{Kind: EventCleared, Count: count, Time: time.Now().UTC()})
}

// Update calls the update hook of every running service in current order.
// It never fails: a panicking hook is recovered and logged, and the
// remaining services are still updated.
func (r *Registry) Update() {
	if r.updating {
		r.logger.Warn("registry update called re-entrantly; ignored")
		return
	}
	r.updating = true
	defer func() { r.updating = false }()

	start := time.Now()
	r.scratch = append(r.scratch[:0], r.entries...)

	var stats UpdateStats
	for _, d := range r.scratch {
		if d.removed || !d.isRunning {
			stats.Skipped++
			continue
		}
		stats.Dispatched++
		if !r.dispatch(d) {
			stats.Panics++
		}
	}
	clear(r.scratch)

	stats.Registered = len(r.entries)
	stats.Running = r.Running()
	stats.Duration = time.Since(start)
	r.observer.UpdateCompleted(stats)
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Running returns the number of services currently running.
func (r *Registry) Running() int {
	n := 0
	for _, d := range r.entries {
		if d.isRunning {
			n++
		}
	}
	return n
}

// Statuses returns the status of every registered service in current order.
func (r *Registry) Statuses() []Status {
	out := make([]Status, len(r.entries))
	for i, d := range r.entries {
		out[i] = d.status()
	}
	return out
}

// LocateByName returns the first registered service with the given display name.
func (r *Registry) LocateByName(name string) (Service, bool) {
	d, ok := r.lookupName(name)
	if !ok {
		return nil, false
	}
	return d.service, true
}

// StatusByName returns the status of the service with the given display name.
func (r *Registry) StatusByName(name string) (Status, bool) {
	d, ok := r.lookupName(name)
	if !ok {
		return Status{}, false
	}
	return d.status(), true
}

// StartByName starts the service with the given display name.
func (r *Registry) StartByName(name string) error {
	d, ok := r.lookupName(name)
	if !ok {
		return r.notRegistered(name)
	}
	return r.start(d.key)
}

// StopByName stops the service with the given display name.
func (r *Registry) StopByName(name string) error {
	d, ok := r.lookupName(name)
	if !ok {
		return r.notRegistered(name)
	}
	return r.stop(d.key)
}

// PauseByName pauses or resumes the service with the given display name.
func (r *Registry) PauseByName(name string, paused bool) error {
	d, ok := r.lookupName(name)
	if !ok {
		return r.notRegistered(name)
	}
	return r.pause(d.key, paused)
}

func (r *Registry) unregister(key reflect.Type) error {
	d, ok := r.lookup(key, true)
	if !ok {
		return r.notRegistered(typeName(key))
	}

	r.entries = slices.DeleteFunc(r.entries, func(e *descriptor) bool { return e == d })
	delete(r.index, key)
	d.removed = true

	r.logger.Info("unregistered service", zap.String("service", d.name), zap.String("id", d.id))
	r.emit(EventUnregistered, d)

	if d.release != nil {
		if err := d.release(); err != nil {
			r.logger.Error("failed to release host resource",
				zap.String("service", d.name), zap.Error(err))
			return fmt.Errorf("release %s: %w", d.name, err)
		}
	}
	return nil
}

func (r *Registry) start(key reflect.Type) error {
	d, ok := r.lookup(key, true)
	if !ok {
		return r.notRegistered(typeName(key))
	}
	if d.hasStarted {
		return r.violation(ViolationAlreadyStarted, d)
	}

	r.logger.Info("starting service", zap.String("service", d.name))
	d.service.OnStart()
	d.hasStarted = true
	d.hasStopped = false
	d.isRunning = true

	r.emit(EventStarted, d)
	return nil
}

func (r *Registry) stop(key reflect.Type) error {
	d, ok := r.lookup(key, true)
	if !ok {
		return r.notRegistered(typeName(key))
	}
	if d.hasStopped {
		return r.violation(ViolationAlreadyStopped, d)
	}

	r.logger.Info("stopping service", zap.String("service", d.name))
	d.service.OnStop()
	d.hasStarted = false
	d.hasStopped = true
	d.isRunning = false

	r.emit(EventStopped, d)
	return nil
}

// pause guards on hasStarted rather than isRunning: pausing an already
// paused service re-invokes the hook, pausing a stopped one is rejected.
func (r *Registry) pause(key reflect.Type, paused bool) error {
	d, ok := r.lookup(key, true)
	if !ok {
		return r.notRegistered(typeName(key))
	}
	if !d.hasStarted {
		return r.violation(ViolationNeverStarted, d)
	}

	d.service.OnPause(paused)
	d.isRunning = !paused

	r.logger.Info("paused service", zap.String("service", d.name), zap.Bool("paused", paused))
	if paused {
		r.emit(EventPaused, d)
	} else {
		r.emit(EventResumed, d)
	}
	return nil
}

func (r *Registry) dispatch(d *descriptor) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			r.logger.Error("service update panicked",
				zap.String("service", d.name),
				zap.Any("panic", p),
				zap.Stack("stack"))
			r.emit(EventUpdatePanic, d)
		}
	}()
	d.service.Update()
	return true
}

func (r *Registry) lookup(key reflect.Type, warn bool) (*descriptor, bool) {
	d, ok := r.index[key]
	if !ok && warn {
		r.logger.Warn("service couldn't be located. Is the service registered?",
			zap.String("service", typeName(key)))
	}
	return d, ok
}

func (r *Registry) lookupName(name string) (*descriptor, bool) {
	for _, d := range r.entries {
		if d.name == name {
			return d, true
		}
	}
	r.logger.Warn("service couldn't be located. Is the service registered?",
		zap.String("service", name))
	return nil, false
}

// notRegistered reports a lookup miss. The miss itself was already logged.
func (r *Registry) notRegistered(name string) error {
	r.observer.LifecycleEvent(Event{
		Kind:      EventViolation,
		Service:   name,
		Violation: ViolationNotRegistered,
		Time:      time.Now().UTC(),
	})
	return &GuardError{Kind: ViolationNotRegistered, Service: name}
}

func (r *Registry) violation(kind Violation, d *descriptor) error {
	err := &GuardError{Kind: kind, Service: d.name}
	r.logger.Warn(err.Error(), zap.String("service", d.name), zap.String("violation", string(kind)))
	r.observer.LifecycleEvent(Event{
		Kind:      EventViolation,
		Service:   d.name,
		ID:        d.id,
		Priority:  d.service.GetPriority(),
		Violation: kind,
		Time:      time.Now().UTC(),
	})
	return err
}

func (r *Registry) emit(kind EventKind, d *descriptor) {
	r.observer.LifecycleEvent(Event{
		Kind:     kind,
		Service:  d.name,
		ID:       d.id,
		Priority: d.service.GetPriority(),
		Time:     time.Now().UTC(),
	})
}
