// Package audit relays session lifecycle events (login, logout, restore) to a
// sink without blocking the store that produced them.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: ordered relay with drop-if-full or block-if-full
//     delivery and a flush deadline on Close.
//
// Only the four [Kind] values are accepted; the Store decides when each is
// emitted.
package audit
