package services

import "reflect"

// Type-parameter forms of the registry operations. They resolve to the same
// type-keyed lookup as the instance methods: Start[*audio.Manager](reg) and
// reg.Start(mgr) address the same descriptor.

// ptrService constrains P to *T implementing Service.
type ptrService[T any] interface {
	*T
	Service
}

// Register allocates a zero T and registers it as a *T service.
//
//	mgr, err := services.Register[audio.Manager](reg)
func Register[T any, P ptrService[T]](r *Registry, opts ...RegisterOption) (P, error) {
	svc := P(new(T))
	if err := r.Register(svc, opts...); err != nil {
		return nil, err
	}
	return svc, nil
}

// Unregister removes the service of type T.
func Unregister[T Service](r *Registry) error {
	return r.unregister(reflect.TypeFor[T]())
}

// Start starts the service of type T.
func Start[T Service](r *Registry) error {
	return r.start(reflect.TypeFor[T]())
}

// Stop stops the service of type T.
func Stop[T Service](r *Registry) error {
	return r.stop(reflect.TypeFor[T]())
}

// Pause pauses or resumes the service of type T.
func Pause[T Service](r *Registry, paused bool) error {
	return r.pause(reflect.TypeFor[T](), paused)
}

// Locate returns the registered service of type T.
func Locate[T Service](r *Registry) (T, bool) {
	var zero T
	d, ok := r.lookup(reflect.TypeFor[T](), true)
	if !ok {
		return zero, false
	}
	svc, ok := d.service.(T)
	if !ok {
		return zero, false
	}
	return svc, true
}

// TryGetStatus returns the registered service of type T with its status.
func TryGetStatus[T Service](r *Registry) (T, Status, bool) {
	var zero T
	d, ok := r.lookup(reflect.TypeFor[T](), true)
	if !ok {
		return zero, Status{}, false
	}
	svc, ok := d.service.(T)
	if !ok {
		return zero, Status{}, false
	}
	return svc, d.status(), true
}
