package cli

import (
	"context"
	"fmt"
)

// Root restores the stored session, starts the connectivity watcher and
// blocks in the REPL.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "cityai CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.session.Initialize(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}
