package goConsole

// Session is the authenticated-identity state. It is a value type: the
// transition methods return a new Session and never touch storage, so the
// rules can be tested without any backend.
type Session struct {
	// Token is the raw bearer token; empty means absent.
	Token string
	// User is nil when no profile is known.
	User *User
}

// IsAuthenticated is derived from token presence and nothing else.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// IsAdmin is true only when a profile exists and carries the privilege flag.
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// WithToken returns s with the token replaced. An empty token clears it.
func (s Session) WithToken(token string) Session {
	s.Token = token
	return s
}

// WithUser returns s with a copy of u as the profile. A nil u clears it.
func (s Session) WithUser(u *User) Session {
	if u == nil {
		s.User = nil
		return s
	}
	cp := *u
	s.User = &cp
	return s
}

// Cleared returns the unauthenticated session.
func (Session) Cleared() Session {
	return Session{}
}

// clone detaches the profile pointer so callers cannot mutate store state.
func (s Session) clone() Session {
	return Session{}.WithToken(s.Token).WithUser(s.User)
}
