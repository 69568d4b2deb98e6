// Package storage provides the durable key/value backends that keep a console
// session alive across restarts.
//
// The console persists two entries: the raw bearer token and the JSON user
// profile. Backends only move strings; they never interpret the values.
//
// # Backends
//
//   - [Memory]: process-local map, for tests and throwaway runs.
//   - [Redis]: shared Redis instance, keys namespaced by a prefix.
//   - [File]: a single JSON document on disk, for the CLI.
//   - [SQLite]: an embedded database file, one table shared by namespaces.
//
// # What this package must NOT do
//
//   - Import goConsole or token (no upward imports).
//   - Decode or validate tokens.
package storage
