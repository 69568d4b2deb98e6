package goConsole

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goConsole/internal/authapi"
	"github.com/MrEthical07/goConsole/token"
)

// Login exchanges credentials for a token at the API's token endpoint,
// decodes the token payload (without verifying it) into a profile, and
// commits token and profile together.
//
// On any failure, including a token that cannot be decoded or storage that
// cannot be written, the session is cleared before the error is returned,
// so a failed attempt never leaves a partial session. The error wraps one of
// ErrMissingCredentials, ErrLoginRateLimited, ErrInvalidCredentials,
// ErrAuthUnavailable, ErrMalformedToken or ErrPersistence.
func (s *Store) Login(ctx context.Context, creds Credentials) (*Identity, error) {
	started := s.clock.Now()
	identity, err := s.login(ctx, creds)
	s.metrics.Observe(MetricLoginLatency, s.clock.Now().Sub(started))

	if err != nil {
		// The attempt may have failed because ctx ended; the cleanup must
		// still reach storage.
		cleanupCtx := context.WithoutCancel(ctx)
		if clearErr := s.ClearAuth(cleanupCtx); clearErr != nil {
			s.logger.Error("clear after failed login", "error", clearErr)
		}
		s.metrics.Inc(MetricLoginFailure)
		s.emitAudit(cleanupCtx, AuditLoginFailure, creds.Username, false, err, nil)
		s.logger.Warn("login failed", "username", creds.Username, "error", err)
		return nil, err
	}

	s.metrics.Inc(MetricLoginSuccess)
	s.emitAudit(ctx, AuditLoginSuccess, identity.Username, true, nil, map[string]string{
		"admin": fmt.Sprint(identity.IsAdmin),
	})
	s.logger.Info("login succeeded", "username", identity.Username, "admin", identity.IsAdmin)
	return identity, nil
}

func (s *Store) login(ctx context.Context, creds Credentials) (*Identity, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.Inc(MetricLoginRateLimited)
		return nil, ErrLoginRateLimited
	}

	raw, err := s.api.RequestToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, classifyAuthError(err)
	}

	claims, err := token.DecodeUnverified(raw)
	if err != nil {
		return nil, err
	}

	user := &User{Username: claims.Subject, IsAdmin: claims.IsAdmin}
	if err := s.commit(ctx, raw, user); err != nil {
		return nil, err
	}

	identity := &Identity{Username: user.Username, IsAdmin: user.IsAdmin}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func classifyAuthError(err error) error {
	switch {
	case errors.Is(err, authapi.ErrRejected):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	case errors.Is(err, authapi.ErrThrottled):
		return fmt.Errorf("%w: %w", ErrLoginRateLimited, err)
	}
	return fmt.Errorf("%w: %w", ErrAuthUnavailable, err)
}

// Logout clears the session locally. The server is not contacted.
//
// Cancellation of ctx does not stop the persisted keys from being removed;
// values from ctx are still passed to storage.
func (s *Store) Logout(ctx context.Context) error {
	username := ""
	if u, ok := s.CurrentUser(); ok {
		username = u.Username
	}

	ctx = context.WithoutCancel(ctx)
	err := s.ClearAuth(ctx)
	s.metrics.Inc(MetricLogout)
	s.emitAudit(ctx, AuditLogout, username, err == nil, err, nil)
	return err
}

// InitializeAuth restores a persisted session at startup: when a token was
// saved, it becomes the session token and the outbound credential again,
// together with the saved profile. The server is not contacted.
//
// A profile that cannot be decoded is discarded (and deleted from storage);
// the token alone still authenticates. Without a saved token the store is
// left as is.
func (s *Store) InitializeAuth(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tok, ok, err := s.storage.Get(ctx, s.config.Storage.TokenKey)
	if err != nil {
		return s.persistErr("load token", err)
	}
	if !ok || tok == "" {
		return nil
	}

	user, err := s.loadUser(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = Session{}.WithToken(tok).WithUser(user)
	s.setBearerLocked(tok)
	s.mu.Unlock()

	username := ""
	if user != nil {
		username = user.Username
	}
	s.metrics.Inc(MetricSessionRestored)
	s.emitAudit(ctx, AuditSessionRestored, username, true, nil, nil)
	s.logger.Debug("session restored", "username", username)
	return nil
}

// loadUser requires writeMu.
func (s *Store) loadUser(ctx context.Context) (*User, error) {
	raw, ok, err := s.storage.Get(ctx, s.config.Storage.UserKey)
	if err != nil {
		return nil, s.persistErr("load user", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("discarding unreadable user profile", "error", err)
		if delErr := s.storage.Delete(ctx, s.config.Storage.UserKey); delErr != nil {
			s.logger.Warn("delete unreadable user profile", "error", delErr)
		}
		return nil, nil
	}
	return &u, nil
}
