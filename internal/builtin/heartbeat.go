package builtin

import (
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/bootstrap"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

const defaultHeartbeatEvery = 60

func init() {
	bootstrap.Add("heartbeat", NewHeartbeat)
}

// Heartbeat logs at debug level every N frames so a stalled loop is visible.
type Heartbeat struct {
	logger *zap.Logger
	every  uint64
	frames uint64
	beats  uint64
}

// NewHeartbeat is the bootstrap factory for Heartbeat.
func NewHeartbeat(env bootstrap.Env) (services.Service, error) {
	every := uint64(defaultHeartbeatEvery)
	if env.Config.Every > 0 {
		every = uint64(env.Config.Every)
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{logger: logger, every: every}, nil
}

func (h *Heartbeat) Name() string                   { return "heartbeat" }
func (h *Heartbeat) GetPriority() services.Priority { return services.VeryHigh }
func (h *Heartbeat) DoAutoStart() bool              { return true }
func (h *Heartbeat) OnStart()                       { h.frames = 0 }
func (h *Heartbeat) OnStop()                        {}
func (h *Heartbeat) OnPause(bool)                   {}

func (h *Heartbeat) Update() {
	h.frames++
	if h.frames%h.every != 0 {
		return
	}
	h.beats++
	h.logger.Debug("heartbeat", zap.Uint64("frames", h.frames), zap.Uint64("beats", h.beats))
}

// Beats returns the number of heartbeats logged.
func (h *Heartbeat) Beats() uint64 { return h.beats }
