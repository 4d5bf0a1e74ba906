package builtin

import (
	"time"

	"github.com/fyrsmithlabs/svclocator/internal/bootstrap"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

func init() {
	bootstrap.Add("uptime", NewUptime)
}

// Uptime counts the frames it has been running for.
type Uptime struct {
	frames    uint64
	pauses    uint64
	startedAt time.Time
	now       func() time.Time
}

// NewUptime is the bootstrap factory for Uptime.
func NewUptime(bootstrap.Env) (services.Service, error) {
	return &Uptime{now: time.Now}, nil
}

func (u *Uptime) Name() string                   { return "uptime" }
func (u *Uptime) GetPriority() services.Priority { return services.High }
func (u *Uptime) DoAutoStart() bool              { return true }
func (u *Uptime) OnStart()                       { u.startedAt = u.now() }
func (u *Uptime) OnStop()                        {}
func (u *Uptime) Update()                        { u.frames++ }

func (u *Uptime) OnPause(paused bool) {
	if paused {
		u.pauses++
	}
}

// Frames returns the number of updates received while running.
func (u *Uptime) Frames() uint64 { return u.frames }

// Pauses returns how many times the service was paused.
func (u *Uptime) Pauses() uint64 { return u.pauses }

// Since returns the wall time since the last start, or zero if never started.
func (u *Uptime) Since() time.Duration {
	if u.startedAt.IsZero() {
		return 0
	}
	return u.now().Sub(u.startedAt)
}
