package notify

import (
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/clock"
	"github.com/google/uuid"
)

// Config configures a [Center].
type Config struct {
	// Lifetime defaults to DefaultLifetime when zero.
	Lifetime time.Duration
	Clock    clock.Clock
	// NewID defaults to time-ordered UUIDv7 strings.
	NewID func() string
	// OnExpire, when set, is called after a timer removed an entry. It runs
	// without the center lock held.
	OnExpire func(Notification)
}

// Center is the ordered notification list. It is safe for concurrent use.
type Center struct {
	mu       sync.Mutex
	lifetime time.Duration
	clock    clock.Clock
	newID    func() string
	onExpire func(Notification)

	items  []entry
	timers map[string]clock.Timer
	seq    uint64
	closed bool
}

// entry pairs a notification with the sequence number of the Show call that
// created it. Timers carry the sequence so a replaced entry's timer can never
// touch its successor, even when both share an ID and a creation instant.
type entry struct {
	Notification
	seq uint64
}

// NewCenter returns an empty Center.
func NewCenter(cfg Config) *Center {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.NewID == nil {
		cfg.NewID = newTimeOrderedID
	}
	return &Center{
		lifetime: cfg.Lifetime,
		clock:    cfg.Clock,
		newID:    cfg.NewID,
		onExpire: cfg.OnExpire,
		timers:   make(map[string]clock.Timer),
	}
}

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Show appends a notification and schedules its removal after the lifetime.
//
// A caller-supplied ID that matches a live entry replaces that entry and
// restarts its lifetime.
func (c *Center) Show(p Payload) (Notification, error) {
	kind := p.Kind
	if !kind.Valid() {
		kind = KindInfo
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Notification{}, ErrClosed
	}

	id := p.ID
	if id == "" {
		id = c.newID()
	}
	c.removeLocked(id)

	n := Notification{
		ID:        id,
		Kind:      kind,
		Title:     p.Title,
		Message:   p.Message,
		CreatedAt: c.clock.Now(),
	}
	c.seq++
	seq := c.seq
	c.items = append(c.items, entry{Notification: n, seq: seq})
	c.mu.Unlock()

	// Scheduled outside the lock: a fake clock may fire immediately.
	timer := c.clock.AfterFunc(c.lifetime, func() { c.expire(id, seq) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.indexLocked(id, seq) < 0 {
		timer.Stop()
		return n, nil
	}
	c.timers[id] = timer
	return n, nil
}

func (c *Center) expire(id string, seq uint64) {
	c.mu.Lock()
	i := c.indexLocked(id, seq)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	n := c.items[i].Notification
	c.removeLocked(id)
	onExpire := c.onExpire
	c.mu.Unlock()

	if onExpire != nil {
		onExpire(n)
	}
}

// indexLocked returns the position of the entry created by Show call seq, or -1.
func (c *Center) indexLocked(id string, seq uint64) int {
	for i, it := range c.items {
		if it.ID == id && it.seq == seq {
			return i
		}
	}
	return -1
}

// Remove deletes the entry with id and cancels its timer. It reports whether
// an entry was removed.
func (c *Center) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Center) removeLocked(id string) bool {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the live notifications in insertion order.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	for i, it := range c.items {
		out[i] = it.Notification
	}
	return out
}

// Len returns the number of live notifications.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close cancels every pending timer. Live entries stay listed.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
