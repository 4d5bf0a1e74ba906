// Package config provides configuration loading for svclocd.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config holds the daemon configuration.
type Config struct {
	Server        ServerConfig             `koanf:"server"`
	Loop          LoopConfig               `koanf:"loop"`
	Logging       LoggingConfig            `koanf:"logging"`
	Observability ObservabilityConfig      `koanf:"observability"`
	Events        EventsConfig             `koanf:"events"`
	Services      map[string]ServiceConfig `koanf:"services"`
}

// ServerConfig holds HTTP control API configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is the sustained rate of mutating requests per second.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// LoopConfig holds tick driver configuration.
type LoopConfig struct {
	TickInterval Duration `koanf:"tick_interval"`
	// StopOnExit stops every service before the registry is cleared on shutdown.
	StopOnExit bool `koanf:"stop_on_exit"`
}

// LoggingConfig holds the user-facing subset of logging settings.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
	OTEL     bool   `koanf:"otel"`
}

// ObservabilityConfig holds OpenTelemetry and Prometheus settings.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	EnableMetrics   bool    `koanf:"enable_metrics"`
	ServiceName     string  `koanf:"service_name"`
	OTLPEndpoint    string  `koanf:"otlp_endpoint"`
	OTLPProtocol    string  `koanf:"otlp_protocol"`
	OTLPInsecure    bool    `koanf:"otlp_insecure"`
	TLSSkipVerify   bool    `koanf:"tls_skip_verify"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// EventsConfig holds NATS lifecycle event publishing settings.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ServiceConfig overrides the bootstrap behavior of one service, keyed by
// its display name.
type ServiceConfig struct {
	// AutoStart overrides the service's own DoAutoStart when set.
	AutoStart *bool `koanf:"auto_start"`
	// Disabled services are never instantiated.
	Disabled bool `koanf:"disabled"`
	// Paused is applied after bootstrap and on every config reload.
	Paused bool `koanf:"paused"`
	// Every sets how many frames pass between periodic actions.
	Every int `koanf:"every"`
	// Path is the output file of services that write one.
	Path string `koanf:"path"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            9191,
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit:       5,
			RateBurst:       10,
		},
		Loop: LoopConfig{
			TickInterval: Duration(time.Second / 60),
			StopOnExit:   true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Sampling: true,
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			ServiceName:   "svclocd",
			OTLPEndpoint:  "localhost:4317",
			OTLPProtocol:  "grpc",
			OTLPInsecure:  true,
			SamplingRate:  1.0,
		},
		Events: EventsConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "svcloc",
		},
		Services: map[string]ServiceConfig{},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 0-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must be > 0"))
	}
	if c.Server.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be >= 1"))
	}
	if c.Loop.TickInterval.Duration() <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_interval must be > 0"))
	}
	if !slices.Contains([]string{"json", "console"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}
	if c.Observability.EnableTelemetry {
		if c.Observability.OTLPEndpoint == "" {
			errs = append(errs, fmt.Errorf("observability.otlp_endpoint is required when telemetry is enabled"))
		}
		if p := strings.ToLower(c.Observability.OTLPProtocol); p != "grpc" && p != "http/protobuf" && p != "http" {
			errs = append(errs, fmt.Errorf("observability.otlp_protocol must be grpc or http/protobuf, got %q", c.Observability.OTLPProtocol))
		}
	}
	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("observability.sampling_rate must be 0-1, got %v", c.Observability.SamplingRate))
	}
	if c.Events.Enabled {
		if c.Events.URL == "" {
			errs = append(errs, fmt.Errorf("events.url is required when events are enabled"))
		}
		if c.Events.SubjectPrefix == "" || strings.ContainsAny(c.Events.SubjectPrefix, " *>") {
			errs = append(errs, fmt.Errorf("events.subject_prefix %q is not a valid subject token", c.Events.SubjectPrefix))
		}
	}
	for name, svc := range c.Services {
		if name == "" {
			errs = append(errs, fmt.Errorf("services: empty service name"))
		}
		if svc.Every < 0 {
			errs = append(errs, fmt.Errorf("services.%s.every must be >= 0", name))
		}
	}

	return errors.Join(errs...)
}

// Service returns the override for name, or the zero ServiceConfig.
func (c *Config) Service(name string) ServiceConfig {
	if c.Services == nil {
		return ServiceConfig{}
	}
	return c.Services[name]
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
