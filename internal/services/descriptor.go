package services

import (
	"cmp"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// State names the observable lifecycle state of a registered service.
type State string

const (
	StateUnstarted State = "unstarted"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// descriptor pairs one owned service with its lifecycle flags.
//
// At creation all three flags are false (the implicit "never started" state).
// After the first successful Start or Stop, hasStarted and hasStopped are
// mutually exclusive, and isRunning implies hasStarted.
type descriptor struct {
	service      Service
	key          reflect.Type
	name         string
	catalogName  string
	id           string
	registeredAt time.Time

	hasStarted bool
	hasStopped bool
	isRunning  bool

	// release frees a host-managed resource tied to the service. Nil when
	// the service owns nothing outside the registry.
	release func() error

	// removed is set once the descriptor leaves the registry so in-flight
	// iterations over a snapshot skip it.
	removed bool
}

func newDescriptor(svc Service, o registerOptions) *descriptor {
	return &descriptor{
		service:      svc,
		key:          keyOf(svc),
		name:         NameOf(svc),
		catalogName:  o.catalogName,
		id:           uuid.NewString(),
		registeredAt: time.Now().UTC(),
		release:      o.release,
	}
}

func (d *descriptor) state() State {
	switch {
	case d.isRunning:
		return StateRunning
	case d.hasStarted:
		return StatePaused
	case d.hasStopped:
		return StateStopped
	default:
		return StateUnstarted
	}
}

func (d *descriptor) status() Status {
	return Status{
		Name:         d.name,
		CatalogName:  d.catalogName,
		ID:           d.id,
		Type:         d.key.String(),
		Priority:     d.service.GetPriority(),
		State:        d.state(),
		Running:      d.isRunning,
		Started:      d.hasStarted,
		Stopped:      d.hasStopped,
		HostManaged:  d.release != nil,
		RegisteredAt: d.registeredAt,
	}
}

// byPriority orders descriptors by ascending priority (VeryHigh first).
func byPriority(a, b *descriptor) int {
	return cmp.Compare(a.service.GetPriority(), b.service.GetPriority())
}

// Status is a point-in-time view of one registered service.
type Status struct {
	Name         string    `json:"name"`
	CatalogName  string    `json:"catalog_name,omitempty"`
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Priority     Priority  `json:"priority"`
	State        State     `json:"state"`
	Running      bool      `json:"running"`
	Started      bool      `json:"started"`
	Stopped      bool      `json:"stopped"`
	HostManaged  bool      `json:"host_managed"`
	RegisteredAt time.Time `json:"registered_at"`
}
