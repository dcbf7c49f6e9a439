package cli

import (
	"fmt"

	"github.com/dmitrijs2005/cityai/internal/client/guard"
)

// render draws the screen chosen by the navigator. It runs inside session
// notifications, so it only reads state.
func (a *App) render(s guard.Screen) {
	if s.Placeholder {
		fmt.Fprintln(a.out, "Loading...")
		return
	}

	switch s.View {
	case guard.ViewLogin:
		fmt.Fprintln(a.out, "Please sign in. Commands: login, signup, help")
	case guard.ViewHome:
		p, _ := a.session.State().Principal()
		if p.Department != "" {
			fmt.Fprintf(a.out, "Welcome, %s (%s)\n", p.DisplayName(), p.Department)
		} else {
			fmt.Fprintf(a.out, "Welcome, %s\n", p.DisplayName())
		}
	default:
		fmt.Fprintf(a.out, "[%s]\n", s.View)
	}
}

// banner prints the flow's current messages, error first.
func (a *App) banner() {
	if msg := a.flow.Error(); msg != "" {
		fmt.Fprintln(a.out, "Error:", msg)
	}
	if msg := a.flow.Notice(); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}
