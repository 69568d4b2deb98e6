package goConsole

import (
	"errors"

	"github.com/MrEthical07/goConsole/notify"
	"github.com/MrEthical07/goConsole/token"
)

var (
	// ErrInvalidCredentials is returned when the auth endpoint rejects the username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthUnavailable is returned when the auth endpoint cannot be reached or answers with an unexpected status or body.
	ErrAuthUnavailable = errors.New("auth endpoint unavailable")
	// ErrMalformedToken is returned when the issued token payload cannot be decoded.
	ErrMalformedToken = token.ErrMalformed
	// ErrLoginRateLimited is returned when the local login throttle denies an
	// attempt or the auth endpoint answers 429.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrMissingCredentials is returned when Login is called with an empty username or password.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrPersistence wraps storage failures while saving or clearing session state.
	ErrPersistence = errors.New("session persistence failed")
	// ErrNotificationsClosed is returned by ShowNotification after Close.
	ErrNotificationsClosed = notify.ErrClosed
	// ErrInvalidServerStatus is returned by ParseServerStatus for unknown values.
	ErrInvalidServerStatus = errors.New("invalid server status")
)
