package services

import "time"

// EventKind identifies a lifecycle event.
type EventKind string

const (
	EventRegistered   EventKind = "registered"
	EventUnregistered EventKind = "unregistered"
	EventStarted      EventKind = "started"
	EventStopped      EventKind = "stopped"
	EventPaused       EventKind = "paused"
	EventResumed      EventKind = "resumed"
	EventCleared      EventKind = "cleared"
	EventViolation    EventKind = "violation"
	EventUpdatePanic  EventKind = "update_panic"
)

// Event describes a single registry state change or rejected operation.
type Event struct {
	Kind      EventKind `json:"kind"`
	Service   string    `json:"service,omitempty"`
	ID        string    `json:"id,omitempty"`
	Priority  Priority  `json:"priority"`
	Violation Violation `json:"violation,omitempty"`
	// Count is the number of descriptors dropped by a clear.
	Count int       `json:"count,omitempty"`
	Time  time.Time `json:"time"`
}

// UpdateStats summarises one Update pass.
type UpdateStats struct {
	Dispatched int
	Skipped    int
	Panics     int
	Registered int
	Running    int
	Duration   time.Duration
}

// Observer receives registry events synchronously on the registry goroutine.
// Implementations must not call back into the registry.
type Observer interface {
	LifecycleEvent(Event)
	UpdateCompleted(UpdateStats)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) LifecycleEvent(Event)        {}
func (NopObserver) UpdateCompleted(UpdateStats) {}

// Observers fans events out to every member in order.
type Observers []Observer

// LifecycleEvent implements Observer.
func (o Observers) LifecycleEvent(ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.LifecycleEvent(ev)
		}
	}
}

// UpdateCompleted implements Observer.
func (o Observers) UpdateCompleted(stats UpdateStats) {
	for _, obs := range o {
		if obs != nil {
			obs.UpdateCompleted(stats)
		}
	}
}
