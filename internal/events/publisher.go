// Package events publishes registry lifecycle events to NATS.
//
// Every services.Event is published as JSON on the subject
//
//	<prefix>.<kind>.<service>
//
// so subscribers can filter with wildcards, e.g. "svcloc.violation.>" for
// every guard violation or "svcloc.*.heartbeat" for one service.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/services"
)

// ErrEmptyPrefix is returned when the subject prefix is empty.
var ErrEmptyPrefix = errors.New("events: subject prefix is required")

// Publisher is a services.Observer that forwards lifecycle events to NATS.
//
// nats.Conn.Publish only buffers, so LifecycleEvent never blocks the
// registry goroutine on the network.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
	owned  bool
}

var _ services.Observer = (*Publisher)(nil)

// New creates a publisher on an existing connection. The caller keeps
// ownership of nc.
func New(nc *nats.Conn, prefix string, logger *zap.Logger) (*Publisher, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		nc:     nc,
		prefix: prefix,
		logger: logger.Named("events"),
	}, nil
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("svclocd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}

	p, err := New(nc, prefix, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// LifecycleEvent implements services.Observer.
func (p *Publisher) LifecycleEvent(ev services.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("kind", string(ev.Kind)), zap.Error(err))
		return
	}

	subject := Subject(p.prefix, ev)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// UpdateCompleted implements services.Observer. Update passes are too
// frequent to publish; they are covered by metrics.
func (p *Publisher) UpdateCompleted(services.UpdateStats) {}

// Flush waits until buffered events have been written to the server.
func (p *Publisher) Flush() error {
	return p.nc.Flush()
}

// Close drains the connection if the publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.nc.Drain()
}

// Subject returns the subject an event is published on. Events without a
// service (a registry clear) use "_" as the last token.
func Subject(prefix string, ev services.Event) string {
	return prefix + "." + token(string(ev.Kind)) + "." + token(ev.Service)
}

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_", "\t", "_")

// token makes s safe as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}
