// Package goConsole is the session layer of the stream-management console:
// it owns the bearer token and user profile, persists them across restarts,
// propagates the token on outbound requests, tracks a coarse server status,
// and keeps a list of self-expiring notifications.
//
// A [Store] is built with [New] and [Builder.Build]. It is the single writer
// of session state; every other component (the navigation guard in package
// router, HTTP clients, the kiosk front end) only reads it.
//
// # Architecture boundaries
//
// goConsole is the public surface. Token decoding lives in token, persistence
// backends in storage, notification timers in notify, and route policy in
// router. The management API itself is an external collaborator reached only
// through its token endpoint.
//
// # What this package must NOT do
//
//   - Verify token signatures (the API server does that on every request).
//   - Refresh or expire tokens on its own.
//   - Leave a half-authenticated state behind after a failed login.
package goConsole
