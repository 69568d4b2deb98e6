package notify

import (
	"errors"
	"time"
)

// DefaultLifetime is how long a notification stays visible unless removed.
const DefaultLifetime = 5 * time.Second

// ErrClosed is returned by [Center.Show] after [Center.Close].
var ErrClosed = errors.New("notification center closed")

// Kind classifies a notification for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return true
	}
	return false
}

// Payload is what callers hand to [Center.Show]. ID is optional.
type Payload struct {
	ID      string
	Kind    Kind
	Title   string
	Message string
}

// Notification is a shown entry.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
