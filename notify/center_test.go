package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/clock"
	"github.com/google/uuid"
)

func newTestCenter(t *testing.T) (*Center, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewCenter(Config{Clock: fc}), fc
}

func ids(list []Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestShowAppearsImmediatelyAndExpiresAfterFiveSeconds(t *testing.T) {
	c, fc := newTestCenter(t)

	n, err := c.Show(Payload{Message: "x"})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if c.Len() != 1 || c.List()[0].ID != n.ID {
		t.Fatalf("expected notification to be listed immediately, got %v", ids(c.List()))
	}
	if n.Kind != KindInfo {
		t.Fatalf("expected default kind info, got %q", n.Kind)
	}
	if !n.CreatedAt.Equal(fc.Now()) {
		t.Fatalf("expected creation time %v, got %v", fc.Now(), n.CreatedAt)
	}

	fc.Advance(4999 * time.Millisecond)
	if c.Len() != 1 {
		t.Fatal("notification expired before 5000ms")
	}
	fc.Advance(time.Millisecond)
	if c.Len() != 0 {
		t.Fatalf("expected notification gone at 5000ms, got %v", ids(c.List()))
	}
}

func TestGeneratedIDsAreTimeOrderedUUIDs(t *testing.T) {
	c, _ := newTestCenter(t)
	n, err := c.Show(Payload{Message: "x"})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	parsed, err := uuid.Parse(n.ID)
	if err != nil {
		t.Fatalf("expected uuid id, got %q: %v", n.ID, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected UUIDv7, got version %d", parsed.Version())
	}
}

func TestExpiryRemovesTheRightEntryAmidInterleavedChanges(t *testing.T) {
	c, fc := newTestCenter(t)

	first, _ := c.Show(Payload{Message: "first"})
	fc.Advance(time.Second)
	second, _ := c.Show(Payload{Message: "second"})
	fc.Advance(time.Second)
	third, _ := c.Show(Payload{Message: "third"})

	if !c.Remove(second.ID) {
		t.Fatal("expected manual removal of second to succeed")
	}
	fc.Advance(time.Second)
	fourth, _ := c.Show(Payload{Message: "fourth"})

	got := ids(c.List())
	want := []string{first.ID, third.ID, fourth.ID}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected insertion order %v, got %v", want, got)
	}

	// t=5s: first expires, nothing else.
	fc.Advance(2 * time.Second)
	if fmt.Sprint(ids(c.List())) != fmt.Sprint([]string{third.ID, fourth.ID}) {
		t.Fatalf("expected only first to expire, got %v", ids(c.List()))
	}

	// t=7s: third expires.
	fc.Advance(2 * time.Second)
	if fmt.Sprint(ids(c.List())) != fmt.Sprint([]string{fourth.ID}) {
		t.Fatalf("expected third to expire, got %v", ids(c.List()))
	}

	// t=8s: fourth expires.
	fc.Advance(time.Second)
	if c.Len() != 0 {
		t.Fatalf("expected empty list, got %v", ids(c.List()))
	}
}

func TestRemoveCancelsTimerAndIsIdempotent(t *testing.T) {
	c, fc := newTestCenter(t)
	n, _ := c.Show(Payload{ID: "custom", Message: "x"})
	if n.ID != "custom" {
		t.Fatalf("expected caller id to be kept, got %q", n.ID)
	}
	if fc.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", fc.Pending())
	}

	if !c.Remove("custom") {
		t.Fatal("expected first remove to succeed")
	}
	if c.Remove("custom") {
		t.Fatal("expected second remove to be a no-op")
	}
	if fc.Pending() != 0 {
		t.Fatalf("expected timer cancelled, got %d pending", fc.Pending())
	}
	fc.Advance(10 * time.Second)
	if c.Len() != 0 {
		t.Fatal("unexpected entries after removal")
	}
}

func TestReplacingCallerIDRestartsLifetime(t *testing.T) {
	c, fc := newTestCenter(t)
	c.Show(Payload{ID: "dup", Message: "old"})
	fc.Advance(3 * time.Second)
	c.Show(Payload{ID: "dup", Message: "new"})

	list := c.List()
	if len(list) != 1 || list[0].Message != "new" {
		t.Fatalf("expected single replaced entry, got %+v", list)
	}

	fc.Advance(3 * time.Second)
	if c.Len() != 1 {
		t.Fatal("old timer removed the replacement")
	}
	fc.Advance(2 * time.Second)
	if c.Len() != 0 {
		t.Fatal("replacement did not expire after its own lifetime")
	}
}

func TestConcurrentReplacementAtOneInstantKeepsOneTimer(t *testing.T) {
	c, fc := newTestCenter(t)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := c.Show(Payload{ID: "dup", Message: fmt.Sprint(i)}); err != nil {
				t.Errorf("Show: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Fatalf("expected one entry for the shared id, got %v", ids(c.List()))
	}
	if fc.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", fc.Pending())
	}

	c.Remove("dup")
	if fc.Pending() != 0 {
		t.Fatalf("expected remove to cancel the only timer, got %d pending", fc.Pending())
	}
}

func TestOnExpireHook(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	var expired []string
	c := NewCenter(Config{
		Clock:    fc,
		Lifetime: time.Second,
		OnExpire: func(n Notification) { expired = append(expired, n.ID) },
	})
	a, _ := c.Show(Payload{Message: "a"})
	b, _ := c.Show(Payload{Message: "b"})
	c.Remove(b.ID)
	fc.Advance(time.Second)

	if len(expired) != 1 || expired[0] != a.ID {
		t.Fatalf("expected only %s to expire via timer, got %v", a.ID, expired)
	}
}

func TestCloseCancelsTimersAndRejectsShow(t *testing.T) {
	c, fc := newTestCenter(t)
	c.Show(Payload{Message: "x"})
	c.Close()

	if fc.Pending() != 0 {
		t.Fatalf("expected timers cancelled, got %d", fc.Pending())
	}
	if c.Len() != 1 {
		t.Fatal("close should keep listed entries")
	}
	if _, err := c.Show(Payload{Message: "y"}); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestUnknownKindFallsBackToInfo(t *testing.T) {
	c, _ := newTestCenter(t)
	n, _ := c.Show(Payload{Kind: "shout", Message: "x"})
	if n.Kind != KindInfo {
		t.Fatalf("expected info, got %q", n.Kind)
	}
	n, _ = c.Show(Payload{Kind: KindError, Message: "y"})
	if n.Kind != KindError {
		t.Fatalf("expected error kind kept, got %q", n.Kind)
	}
}
