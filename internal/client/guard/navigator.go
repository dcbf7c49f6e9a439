package guard

import (
	"sync"

	"github.com/dmitrijs2005/cityai/internal/client/session"
)

// maxRedirects stops a misconfigured pair of gates from bouncing forever.
const maxRedirects = 8

// StateSource is the part of session.Manager the navigator reads.
type StateSource interface {
	State() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Screen is what should be on screen right now.
type Screen struct {
	View        View
	Placeholder bool
}

// Navigator keeps the view history and applies gate decisions to it.
// Redirects replace the current entry, so going back never returns to a view
// the user was turned away from.
type Navigator struct {
	source   StateSource
	onRender func(Screen)

	mu      sync.Mutex
	gates   map[View]Gate
	history []View
	screen  Screen
	state   session.State

	unsubscribe func()
}

// NewNavigator starts at start and calls onRender every time the screen
// changes, including once for the initial screen.
func NewNavigator(source StateSource, start View, onRender func(Screen)) *Navigator {
	if onRender == nil {
		onRender = func(Screen) {}
	}
	n := &Navigator{
		source:   source,
		onRender: onRender,
		gates: map[View]Gate{
			ViewLogin: RequireGuest,
			ViewHome:  RequireAuth,
		},
		history: []View{start},
	}
	n.unsubscribe = source.Subscribe(n.sessionChanged)

	n.mu.Lock()
	n.state = source.State()
	screen, _ := n.evaluate()
	n.mu.Unlock()
	n.onRender(screen)
	return n
}

// Protect registers a view that only signed-in users may see.
func (n *Navigator) Protect(v View) {
	n.Register(v, RequireAuth)
}

// Register sets the gate for v. A view without a gate is public.
func (n *Navigator) Register(v View, g Gate) {
	n.mu.Lock()
	n.gates[v] = g
	n.mu.Unlock()
}

// Navigate pushes v onto the history and shows whatever its gate allows.
func (n *Navigator) Navigate(v View) Screen {
	return n.apply(func() { n.history = append(n.history, v) })
}

// Back pops the current view. The first entry is never popped.
func (n *Navigator) Back() Screen {
	return n.apply(func() {
		if len(n.history) > 1 {
			n.history = n.history[:len(n.history)-1]
		}
	})
}

func (n *Navigator) Current() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// History returns a copy of the view stack, oldest first.
func (n *Navigator) History() []View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]View(nil), n.history...)
}

// Close stops following session changes.
func (n *Navigator) Close() {
	n.unsubscribe()
}

func (n *Navigator) sessionChanged(s session.State) {
	n.apply(func() { n.state = s })
}

func (n *Navigator) apply(change func()) Screen {
	n.mu.Lock()
	change()
	screen, changed := n.evaluate()
	n.mu.Unlock()

	if changed {
		n.onRender(screen)
	}
	return screen
}

// evaluate runs the gate of the top view until one renders or holds.
// n.mu must be held.
func (n *Navigator) evaluate() (Screen, bool) {
	var next Screen
	for i := 0; ; i++ {
		top := n.history[len(n.history)-1]
		gate, ok := n.gates[top]
		if !ok {
			next = Screen{View: top}
			break
		}

		d := gate(n.state)
		if d.Action == ActionRedirect && i < maxRedirects {
			if d.Replace {
				n.history[len(n.history)-1] = d.Target
			} else {
				n.history = append(n.history, d.Target)
			}
			continue
		}
		next = Screen{View: top, Placeholder: d.Action != ActionRender}
		break
	}

	changed := next != n.screen
	n.screen = next
	return next, changed
}
