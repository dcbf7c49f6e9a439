// Package cli provides the interactive cityai command-line client.
//
// It wires configuration, the local credential store, the HTTP auth client,
// the session manager and an interactive REPL. Typical flow: restore the
// previous session (or show the login view), start a background
// connectivity watcher, and execute user commands.
//
// The screens of the client are guard views: "login" is shown only to
// signed-out users and "home" only to signed-in ones. Every session change
// re-runs the guards, so signing in or out (or an expired session) moves the
// user without an explicit command.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
