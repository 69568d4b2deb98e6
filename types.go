package goConsole

import (
	"fmt"
	"strings"
	"time"
)

// User is the persisted profile of the logged-in operator. The JSON shape
// matches what the console has always written under the "user" key.
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Credentials are submitted to the token endpoint.
type Credentials struct {
	Username string
	Password string
}

// Identity is returned by a successful [Store.Login]. It is decoded from the
// token payload without signature verification.
type Identity struct {
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time
}

// ServerStatus is the coarse health of the management API as last reported.
type ServerStatus uint8

const (
	// StatusOnline is the initial status.
	StatusOnline ServerStatus = iota
	StatusDegraded
	StatusOffline
	StatusMaintenance
)

var serverStatusNames = [...]string{
	StatusOnline:      "online",
	StatusDegraded:    "degraded",
	StatusOffline:     "offline",
	StatusMaintenance: "maintenance",
}

func (s ServerStatus) String() string {
	if int(s) < len(serverStatusNames) {
		return serverStatusNames[s]
	}
	return fmt.Sprintf("ServerStatus(%d)", uint8(s))
}

// Valid reports whether s is a known status.
func (s ServerStatus) Valid() bool {
	return int(s) < len(serverStatusNames)
}

// ParseServerStatus is the inverse of String, case-insensitive.
func ParseServerStatus(v string) (ServerStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range serverStatusNames {
		if name == v {
			return ServerStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidServerStatus, v)
}

func (s ServerStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidServerStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *ServerStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseServerStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
