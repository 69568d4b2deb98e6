package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	BufferSize int
	// DropIfFull discards events when the queue is full instead of making
	// the store wait for the sink.
	DropIfFull bool
}

// Stats counts what happened to emitted events.
type Stats struct {
	Delivered uint64
	// Dropped were refused because the queue was full.
	Dropped uint64
	// Abandoned were still queued when a flush deadline passed.
	Abandoned uint64
}

// Lost is Dropped plus Abandoned.
func (s Stats) Lost() uint64 { return s.Dropped + s.Abandoned }

// Dispatcher hands session events to a sink from one goroutine, in emit
// order. A nil *Dispatcher discards everything.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu keeps senders and Close from racing on the queue: senders hold it
	// shared, Close exclusively before closing the queue.
	mu     sync.RWMutex
	queue  chan Event
	closed bool

	quit    chan struct{} // releases senders blocked on a full queue
	flushed chan struct{} // closed by the worker once the queue is empty
	abandon context.CancelFunc
	sinkCtx context.Context

	delivered atomic.Uint64
	dropped   atomic.Uint64
	abandoned atomic.Uint64
	closeOnce sync.Once
	closeErr  error
}

// NewDispatcher starts the delivery goroutine.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	sinkCtx, abandon := context.WithCancel(context.Background())
	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, cfg.BufferSize),
		quit:       make(chan struct{}),
		flushed:    make(chan struct{}),
		abandon:    abandon,
		sinkCtx:    sinkCtx,
	}
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.flushed)
	for event := range d.queue {
		if d.sinkCtx.Err() != nil {
			d.abandoned.Add(1)
			continue
		}
		d.sink.Emit(d.sinkCtx, event)
		d.delivered.Add(1)
	}
}

// Emit queues event and reports whether it was accepted. Events of an
// unknown kind and events emitted after Close are refused without counting.
// Without DropIfFull, Emit waits for room until ctx ends or Close starts.
func (d *Dispatcher) Emit(ctx context.Context, event Event) bool {
	if d == nil || !event.Type.Valid() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
			return true
		default:
			d.dropped.Add(1)
			return false
		}
	}

	select {
	case d.queue <- event:
		return true
	case <-ctx.Done():
	case <-d.quit:
	}
	d.dropped.Add(1)
	return false
}

// Close stops accepting events and waits until the queue is delivered or ctx
// ends. On ctx expiry the sink context is cancelled, the remaining events are
// counted as abandoned and ctx's error is returned. Later calls return the
// first result.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() {
		close(d.quit)
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		select {
		case <-d.flushed:
		case <-ctx.Done():
			pending := len(d.queue)
			d.abandon()
			d.closeErr = fmt.Errorf("audit flush: %d events pending: %w", pending, ctx.Err())
			return
		}
		d.abandon()
	})
	return d.closeErr
}

// Stats returns the delivery counters.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Abandoned: d.abandoned.Load(),
	}
}
