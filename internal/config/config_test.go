package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:9191", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, time.Second/60, cfg.Loop.TickInterval.Duration())
	assert.True(t, cfg.Loop.StopOnExit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "svcloc", cfg.Events.SubjectPrefix)
	assert.False(t, cfg.Events.Enabled)
	assert.NotNil(t, cfg.Services)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Loop.TickInterval = 0 },
			wantErr: "loop.tick_interval",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Server.RateLimit = 0 },
			wantErr: "server.rate_limit",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Observability.EnableTelemetry = true
				c.Observability.OTLPEndpoint = ""
			},
			wantErr: "otlp_endpoint",
		},
		{
			name: "telemetry with unknown protocol",
			mutate: func(c *Config) {
				c.Observability.EnableTelemetry = true
				c.Observability.OTLPProtocol = "udp"
			},
			wantErr: "otlp_protocol",
		},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.Observability.SamplingRate = 1.5 },
			wantErr: "sampling_rate",
		},
		{
			name: "events with wildcard prefix",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.SubjectPrefix = "svc.>"
			},
			wantErr: "subject_prefix",
		},
		{
			name:    "negative every",
			mutate:  func(c *Config) { c.Services["snapshot"] = ServiceConfig{Every: -1} },
			wantErr: "services.snapshot.every",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestConfig_Service(t *testing.T) {
	cfg := Default()
	on := true
	cfg.Services["snapshot"] = ServiceConfig{AutoStart: &on, Every: 30}

	assert.Equal(t, 30, cfg.Service("snapshot").Every)
	assert.Equal(t, ServiceConfig{}, cfg.Service("missing"))

	cfg.Services = nil
	assert.Equal(t, ServiceConfig{}, cfg.Service("snapshot"))
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, d.Duration())
	assert.Equal(t, "250ms", d.String())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
