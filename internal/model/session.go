package model

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusUninitialized is the state before the store has been read.
	StatusUninitialized Status = iota
	// StatusResolving is the state while the store is being read.
	StatusResolving
	// StatusAuthenticated means a user and token are held.
	StatusAuthenticated
	// StatusUnauthenticated means no session is held.
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of session state handed to consumers.
type Snapshot struct {
	Status Status
	User   *User
	Token  string
}

// IsLoading reports whether the session has not been resolved yet.
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusUninitialized || s.Status == StatusResolving
}

// IsAuthenticated reports whether both a user and a token are held.
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}
