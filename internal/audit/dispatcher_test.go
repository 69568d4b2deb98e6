package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) { s.count.Add(1) }

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) { <-s.gate }

// ctxGateSink blocks until the gate opens or the dispatcher abandons delivery.
type ctxGateSink struct {
	gate chan struct{}
}

func (s *ctxGateSink) Emit(ctx context.Context, _ Event) {
	select {
	case <-s.gate:
	case <-ctx.Done():
	}
}

func TestNilDispatcherDiscards(t *testing.T) {
	var d *Dispatcher
	if d.Emit(context.Background(), Event{Type: KindLogout}) {
		t.Fatal("nil dispatcher must not accept events")
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Stats() != (Stats{}) {
		t.Fatal("nil dispatcher should report zero stats")
	}
}

func TestCloseDeliversQueuedEventsInOrder(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{BufferSize: 16}, sink)
	kinds := []Kind{KindLoginFailure, KindLoginSuccess, KindLogout, KindSessionRestored}
	for _, k := range kinds {
		if !d.Emit(context.Background(), Event{Type: k}) {
			t.Fatalf("emit %s refused", k)
		}
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for i, want := range kinds {
		if got := (<-sink.Events()).Type; got != want {
			t.Fatalf("event %d: got %s want %s", i, got, want)
		}
	}
	if st := d.Stats(); st.Delivered != 4 || st.Lost() != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if d.Emit(context.Background(), Event{Type: KindLogout}) {
		t.Fatal("emit after close must be refused")
	}
}

func TestUnknownKindRefused(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{BufferSize: 4}, sink)
	if d.Emit(context.Background(), Event{Type: "password_changed"}) {
		t.Fatal("expected unknown kind to be refused")
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sink.count.Load() != 0 || d.Stats() != (Stats{}) {
		t.Fatalf("unknown kind reached the sink or counters: %+v", d.Stats())
	}
}

func waitQueueEmpty(t *testing.T, d *Dispatcher) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never picked up the first event")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{BufferSize: 1, DropIfFull: true}, sink)

	// First event is taken by the worker and blocks on the gate, the second
	// fills the buffer, the rest are dropped.
	d.Emit(context.Background(), Event{Type: KindLoginSuccess})
	waitQueueEmpty(t, d)
	d.Emit(context.Background(), Event{Type: KindLogout})
	d.Emit(context.Background(), Event{Type: KindLogout})
	d.Emit(context.Background(), Event{Type: KindLogout})

	if got := d.Stats().Dropped; got != 2 {
		t.Fatalf("expected 2 drops, got %d", got)
	}
	close(sink.gate)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := d.Stats().Delivered; got != 2 {
		t.Fatalf("expected 2 delivered, got %d", got)
	}
}

func TestCloseReleasesBlockedEmit(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{BufferSize: 1}, sink)
	d.Emit(context.Background(), Event{Type: KindLoginSuccess})
	waitQueueEmpty(t, d)
	d.Emit(context.Background(), Event{Type: KindLogout})

	accepted := make(chan bool, 1)
	go func() { accepted <- d.Emit(context.Background(), Event{Type: KindLogout}) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected flush deadline error, got %v", err)
	}
	select {
	case ok := <-accepted:
		if ok {
			t.Fatal("blocked emit must be refused once Close starts")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not release the blocked sender")
	}
	close(sink.gate)
}

func TestCloseDeadlineAbandonsQueuedEvents(t *testing.T) {
	sink := &ctxGateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{BufferSize: 8}, sink)
	d.Emit(context.Background(), Event{Type: KindLoginSuccess})
	waitQueueEmpty(t, d)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{Type: KindLogout})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Close ignored its deadline, took %v", elapsed)
	}
	if err := d.Close(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Close should repeat the first result, got %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for d.Stats().Abandoned != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 abandoned events, got %+v", d.Stats())
		}
		time.Sleep(time.Millisecond)
	}
	if st := d.Stats(); st.Lost() != 3 || st.Delivered != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{Type: KindLoginSuccess, Username: "alice", Success: true})
	sink.Emit(context.Background(), Event{Type: KindLogout, Username: "alice", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != KindLoginSuccess || ev.Username != "alice" || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := SlogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	sink.Emit(context.Background(), Event{Type: KindLoginFailure, Username: "bob", Error: "rejected"})

	out := buf.String()
	for _, want := range []string{"level=WARN", "type=login_failure", "username=bob", "error=rejected"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), Event{Type: KindSessionRestored})
	select {
	case ev := <-sink.Events():
		if ev.Type != KindSessionRestored {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected buffered event")
	}
}
