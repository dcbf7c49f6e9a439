package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cityai/internal/client/signup"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	flowMode() signup.Mode
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Back(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Home(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the cityai CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on EOF, when ctx is cancelled, or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Signed out:
//	  - login          sign in with email and password
//	  - signup         create an account
//	  - verify         enter the emailed code (after signup)
//	  - resend         request a new code (after signup)
//	  - back           cancel the current step
//
//	Signed in:
//	  - home           show the home view
//	  - whoami         show the signed-in user
//	  - back           previous view
//	  - logout         sign out
//
//	Always: status, help, exit | quit
//
// Errors returned by command handlers are ignored here; handlers print what
// the user needs to see. This keeps the REPL loop focused on I/O.
//
// Commands read their own prompts from the same reader, so a line is never
// buffered away from them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("cityai %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "login":
			_ = a.Login(ctx)

		case "signup", "register":
			_ = a.Signup(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "back":
			_ = a.Back(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami", "me":
			_ = a.WhoAmI(ctx)

		case "home":
			_ = a.Home(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func helpText(a execIface) string {
	switch {
	case a.isLoggedIn():
		return "Available commands: home, whoami, back, logout, status, exit"
	case a.flowMode() == signup.VerifyMode:
		return "Available commands: verify, resend, back, login, status, exit"
	default:
		return "Available commands: login, signup, status, exit"
	}
}
