package goGate

import (
	"context"
	"time"

	"github.com/MrEthical07/goGate/session"
	"github.com/google/uuid"
)

// Engine defines a public type used by goGate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	cfg        Config
	limiter    *limiter
	users      UserProvider
	sessions   session.Manager
	bearer     *bearerVerifier
	metrics    *Metrics
	translator *Translator
	dispatcher *auditDispatcher
	now        func() time.Time
}

// Config returns a copy of the engine's effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.cfg)
}

// Metrics describes the metrics operation and its observable behavior.
//
// Metrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Translator describes the translator operation and its observable behavior.
//
// Translator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Translator() *Translator {
	return e.translator
}

// Sessions describes the sessions operation and its observable behavior.
//
// Sessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Sessions() session.Manager {
	return e.sessions
}

// AuditDropped reports audit events discarded because the buffer was full.
// Drops are counted through MetricAuditDropped, so metrics must be enabled
// for this to be non-zero.
func (e *Engine) AuditDropped() uint64 {
	return e.metrics.Value(MetricAuditDropped)
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	e.dispatcher.Close()
}

// audit stamps and forwards one event; a nil dispatcher makes it a no-op.
func (e *Engine) audit(ctx context.Context, req *Request, event AuditEvent) {
	if e.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = e.now()
	if req != nil {
		if event.Method == "" {
			event.Method = req.Method
		}
		if event.Path == "" {
			event.Path = req.Path
		}
		if event.ClientIP == "" {
			event.ClientIP = req.ClientIP
		}
		if event.UserID == "" {
			event.UserID = req.AuthUserID
		}
		if event.SessionID == "" && req.Session != nil {
			event.SessionID = req.Session.ID
		}
	}
	e.dispatcher.Emit(ctx, event)
}
