// Package notify holds transient user-facing notifications that expire on
// their own after a fixed lifetime.
//
// Every notification owns exactly one expiry timer, keyed by the identifier
// assigned when it was shown. Removing a notification early cancels that
// timer; a timer that still fires for an already-removed identifier is a
// no-op.
package notify
