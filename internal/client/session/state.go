package session

import "github.com/dmitrijs2005/cityai/internal/client/models"

// Status is the tag of a State.
type Status int

const (
	StatusInitializing Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. Exactly one status holds;
// the principal is meaningful only for StatusAuthenticated.
type State struct {
	status    Status
	principal models.Principal
}

// Initializing is the state before startup verification has settled.
func Initializing() State { return State{status: StatusInitializing} }

func Unauthenticated() State { return State{status: StatusUnauthenticated} }

func Authenticated(p models.Principal) State {
	return State{status: StatusAuthenticated, principal: p}
}

func (s State) Status() Status { return s.status }

// Loading is true only while Initializing.
func (s State) Loading() bool { return s.status == StatusInitializing }

func (s State) IsAuthenticated() bool { return s.status == StatusAuthenticated }

// Principal returns the signed-in user; ok is false unless authenticated.
func (s State) Principal() (models.Principal, bool) {
	if s.status != StatusAuthenticated {
		return models.Principal{}, false
	}
	return s.principal, true
}

func (s State) String() string {
	if s.status == StatusAuthenticated {
		return s.status.String() + "(" + s.principal.Email + ")"
	}
	return s.status.String()
}
