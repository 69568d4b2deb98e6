package goConsole

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goConsole/clock"
	"github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/authapi"
	"github.com/MrEthical07/goConsole/notify"
	"github.com/MrEthical07/goConsole/storage"
	"golang.org/x/time/rate"
)

type (
	// Notification is a shown, self-expiring message.
	Notification = notify.Notification
	// NotificationPayload is the input of ShowNotification.
	NotificationPayload = notify.Payload
)

// Store is the single owner of session state, server status and
// notifications. It is safe for concurrent use; reads never wait on storage
// I/O.
type Store struct {
	// mu guards session and status.
	mu      sync.RWMutex
	session Session
	status  ServerStatus

	// writeMu serializes mutate-then-persist sequences so the storage order
	// matches the in-memory order.
	writeMu sync.Mutex

	bearer atomic.Pointer[string]

	config        Config
	storage       storage.Storage
	api           *authapi.Client
	baseTransport http.RoundTripper
	notes         *notify.Center
	limiter       *rate.Limiter
	metrics       *Metrics
	audit         *audit.Dispatcher
	logger        *slog.Logger
	clock         clock.Clock

	closeOnce sync.Once
}

// SetToken replaces the token. A non-empty token is persisted and becomes
// the outbound bearer credential; an empty token removes both. The token's
// structure is not checked.
//
// The in-memory change is applied even when persisting fails; the returned
// error wraps [ErrPersistence].
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.session = s.session.WithToken(token)
	s.setBearerLocked(token)
	s.mu.Unlock()

	if token == "" {
		return s.persistErr("delete token", s.storage.Delete(ctx, s.config.Storage.TokenKey))
	}
	return s.persistErr("save token", s.storage.Set(ctx, s.config.Storage.TokenKey, token))
}

// SetUser replaces the profile, persisting it as JSON, or deleting it when
// u is nil. It is not cross-checked against the token.
func (s *Store) SetUser(ctx context.Context, u *User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.session = s.session.WithUser(u)
	s.mu.Unlock()

	return s.persistUser(ctx, u)
}

func (s *Store) persistUser(ctx context.Context, u *User) error {
	if u == nil {
		return s.persistErr("delete user", s.storage.Delete(ctx, s.config.Storage.UserKey))
	}
	data, err := json.Marshal(u)
	if err != nil {
		return s.persistErr("encode user", err)
	}
	return s.persistErr("save user", s.storage.Set(ctx, s.config.Storage.UserKey, string(data)))
}

// ClearAuth drops token and profile in one step: no reader can observe one
// without the other. Both persisted entries are removed afterwards.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked(ctx)
}

// clearLocked requires writeMu.
func (s *Store) clearLocked(ctx context.Context) error {
	s.mu.Lock()
	s.session = s.session.Cleared()
	s.setBearerLocked("")
	s.mu.Unlock()

	return s.persistErr("clear session", s.storage.Delete(ctx, s.config.Storage.TokenKey, s.config.Storage.UserKey))
}

// commit installs a freshly issued token and its profile together.
func (s *Store) commit(ctx context.Context, token string, u *User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.session = s.session.WithToken(token).WithUser(u)
	s.setBearerLocked(token)
	s.mu.Unlock()

	if err := s.persistErr("save token", s.storage.Set(ctx, s.config.Storage.TokenKey, token)); err != nil {
		return err
	}
	return s.persistUser(ctx, u)
}

// setBearerLocked requires mu held for writing.
func (s *Store) setBearerLocked(token string) {
	if token == "" {
		s.bearer.Store(nil)
		return
	}
	s.bearer.Store(&token)
}

func (s *Store) persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	s.metrics.Inc(MetricPersistenceFailure)
	s.logger.Error("session persistence failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

/*
====================================
QUERIES
====================================
*/

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated()
}

// IsAdmin reports whether a profile is present and privileged. It never
// fails; without a profile it is false.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAdmin()
}

// CurrentUser returns a copy of the profile.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return User{}, false
	}
	return *s.session.User, true
}

// Snapshot returns a detached copy of the session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

/*
====================================
SERVER STATUS
====================================
*/

// ServerStatus returns the last reported API status. It starts as StatusOnline.
func (s *Store) ServerStatus() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetServerStatus records a new status from the health signal.
func (s *Store) SetServerStatus(status ServerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidServerStatus, uint8(status))
	}
	s.mu.Lock()
	prev := s.status
	s.status = status
	s.mu.Unlock()

	if prev != status {
		s.logger.Info("server status changed", "from", prev.String(), "to", status.String())
	}
	return nil
}

/*
====================================
NOTIFICATIONS
====================================
*/

// ShowNotification appends a notification that removes itself after the
// configured lifetime (5s by default). The returned entry carries the ID
// its timer is keyed by.
func (s *Store) ShowNotification(p NotificationPayload) (Notification, error) {
	n, err := s.notes.Show(p)
	if err != nil {
		return Notification{}, err
	}
	s.metrics.Inc(MetricNotificationShown)
	return n, nil
}

// RemoveNotification removes a notification early and cancels its timer.
func (s *Store) RemoveNotification(id string) bool {
	return s.notes.Remove(id)
}

// Notifications returns the live notifications in insertion order.
func (s *Store) Notifications() []Notification {
	return s.notes.List()
}

/*
====================================
LIFECYCLE
====================================
*/

// MetricsSnapshot returns the current counters and the number of audit
// events that never reached the sink.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	snap := s.metrics.Snapshot()
	snap.AuditDropped = s.AuditDropped()
	return snap
}

// Close cancels notification timers and flushes the audit dispatcher for at
// most Audit.FlushTimeout. The session itself is left untouched.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.notes.Close()
		if s.audit == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Audit.FlushTimeout)
		defer cancel()
		if err := s.audit.Close(ctx); err != nil {
			s.logger.Warn("audit events lost on close", "error", err)
		}
	})
}
