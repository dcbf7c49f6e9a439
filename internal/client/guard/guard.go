// Package guard decides whether a view may be shown for the current session.
//
// RequireAuth and RequireGuest are pure functions of session.State. Navigator
// applies their decisions to a history of views and re-evaluates whenever
// the session changes.
package guard

import (
	"fmt"

	"github.com/dmitrijs2005/cityai/internal/client/session"
)

// View names a screen of the client.
type View string

const (
	ViewLogin View = "login"
	ViewHome  View = "home"
)

type Action int

const (
	ActionRender Action = iota
	// ActionPlaceholder shows a neutral loading screen; nothing is redirected.
	ActionPlaceholder
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionPlaceholder:
		return "placeholder"
	case ActionRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome of a gate. Target and Replace are set only for
// ActionRedirect.
type Decision struct {
	Action  Action
	Target  View
	Replace bool
}

var (
	render      = Decision{Action: ActionRender}
	placeholder = Decision{Action: ActionPlaceholder}
)

func redirect(to View) Decision {
	return Decision{Action: ActionRedirect, Target: to, Replace: true}
}

// Gate maps a session state to a decision.
type Gate func(session.State) Decision

// RequireAuth admits authenticated users and sends everyone else to the
// login view. Nothing is decided while the session is still loading.
func RequireAuth(s session.State) Decision {
	switch {
	case s.Loading():
		return placeholder
	case s.IsAuthenticated():
		return render
	default:
		return redirect(ViewLogin)
	}
}

// RequireGuest is the mirror of RequireAuth: signed-in users go home.
func RequireGuest(s session.State) Decision {
	switch {
	case s.Loading():
		return placeholder
	case s.IsAuthenticated():
		return redirect(ViewHome)
	default:
		return render
	}
}
