package models

// SessionState enumerates the identity resolver states.
type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionResolving       SessionState = "resolving"
	SessionRouted          SessionState = "routed"
	SessionDenied          SessionState = "denied"
)

// SessionResolution is the outcome of resolving a principal into a role and landing route.
type SessionResolution struct {
	State   SessionState `json:"state"`
	UID     string       `json:"uid,omitempty"`
	Role    UserRole     `json:"role,omitempty"`
	Landing string       `json:"landing,omitempty"`
	Profile *UserProfile `json:"profile,omitempty"`
}

// Routed reports whether the session reached a dashboard.
func (s *SessionResolution) Routed() bool {
	return s != nil && s.State == SessionRouted
}
