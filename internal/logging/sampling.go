// internal/logging/sampling.go
package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore wraps core with per-level sampling. Each configured level
// gets its own sampler; unconfigured levels and Error+ pass through.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	cores := []zapcore.Core{
		// Errors and above always pass through
		newLevelRange(core, zapcore.ErrorLevel, zapcore.FatalLevel),
	}

	for lvl := TraceLevel; lvl < zapcore.ErrorLevel; lvl++ {
		exact := newLevelRange(core, lvl, lvl)
		s, ok := cfg.Levels[lvl]
		if !ok || s.Initial <= 0 {
			cores = append(cores, exact)
			continue
		}
		cores = append(cores, zapcore.NewSamplerWithOptions(
			exact,
			cfg.Tick.Duration(),
			s.Initial,
			s.Thereafter,
		))
	}

	return zapcore.NewTee(cores...)
}

// levelFilterCore passes only entries in [minLevel, maxLevel].
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
	maxLevel zapcore.Level
}

func newLevelRange(core zapcore.Core, minLevel, maxLevel zapcore.Level) *levelFilterCore {
	return &levelFilterCore{Core: core, minLevel: minLevel, maxLevel: maxLevel}
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	if lvl < c.minLevel || lvl > c.maxLevel {
		return false
	}
	return c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

// With creates a child core that preserves level filtering.
func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
		maxLevel: c.maxLevel,
	}
}
