// Package token decodes the console's bearer tokens and issues signed tokens
// for the mock token endpoint used by the kiosk example and tests.
//
// # Trust model
//
// [DecodeUnverified] reads the payload segment without checking the signature.
// The console only uses it to learn who it logged in as; the API server remains
// the authority and verifies every bearer credential it receives. Never use the
// decoded claims for an authorization decision that the server does not repeat.
//
// # What this package must NOT do
//
//   - Import goConsole or any storage package (no upward imports).
//   - Cache decoded claims.
package token
