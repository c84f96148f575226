package goGate

import (
	"context"
	"sync"
)

// auditDispatcher decouples gate hot paths from sink latency. Events queue on
// a buffered channel and a single worker delivers them in order; a sink that
// panics loses that one event, never the worker. Overflow behavior follows
// AuditConfig: with DropIfFull the event is discarded and counted against
// MetricAuditDropped, otherwise Emit blocks until space frees up or the
// caller's context ends.
type auditDispatcher struct {
	sink       AuditSink
	metrics    *Metrics
	dropIfFull bool

	queue   chan AuditEvent
	quit    chan struct{}
	drained chan struct{}

	mu     sync.Mutex
	closed bool
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, metrics *Metrics) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		metrics:    metrics,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, size),
		quit:       make(chan struct{}),
		drained:    make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver is the worker loop. On shutdown it finishes whatever is already
// queued before signalling drained.
func (d *auditDispatcher) deliver() {
	defer close(d.drained)

	for {
		select {
		case event := <-d.queue:
			d.forward(event)
		case <-d.quit:
			for {
				select {
				case event := <-d.queue:
					d.forward(event)
				default:
					return
				}
			}
		}
	}
}

// forward hands one event to the sink. Sink panics are contained here so a
// broken sink cannot kill delivery of later events.
func (d *auditDispatcher) forward(event AuditEvent) {
	defer func() { _ = recover() }()
	d.sink.Emit(context.Background(), event)
}

// Emit queues one event for delivery. It never fails: a nil dispatcher or a
// closed one ignores the event, and a full queue either drops (counted) or
// blocks depending on configuration.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.isClosed() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.quit:
		default:
			d.metrics.Inc(MetricAuditDropped)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

func (d *auditDispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close stops intake and waits for queued events to drain. Safe to call more
// than once; Emit after Close is a no-op.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.quit)
	d.mu.Unlock()
	<-d.drained
}
