package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/config"
	"github.com/dmitrijs2005/cityai/internal/client/credstore"
	"github.com/dmitrijs2005/cityai/internal/client/guard"
	"github.com/dmitrijs2005/cityai/internal/client/session"
	"github.com/dmitrijs2005/cityai/internal/client/signup"
	"github.com/dmitrijs2005/cityai/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single reachability probe of the watcher.
const pingTimeout = 3 * time.Second

type App struct {
	config  *config.Config
	api     client.Client
	session *session.Manager
	flow    *signup.Flow
	nav     *guard.Navigator
	logger  logging.Logger
	db      *sql.DB

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.RWMutex
	mode   Mode
}

// NewApp opens the credential database, connects the HTTP client and wires
// the session, the sign-in flow and the navigator together.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.BaseURL, c.RequestTimeout, client.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := newApp(c, apiClient, credstore.NewSQLiteStore(db), logger, os.Stdin, os.Stdout)
	app.db = db
	return app, nil
}

func newApp(c *config.Config, api client.Client, store credstore.Store, logger logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config: c,
		api:    api,
		logger: logger,
		reader: bufio.NewReader(in),
		out:    out,
	}
	a.session = session.NewManager(api, store, session.WithLogger(logger))
	a.flow = signup.NewFlow(a.session)
	a.nav = guard.NewNavigator(a.session, guard.ViewHome, a.render)
	return a
}

// Run restores the previous session and serves the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	a.nav.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated()
}

func (a *App) flowMode() signup.Mode {
	return a.flow.Mode()
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the backend every interval and flips the
// connectivity mode accordingly. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.api.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func (a *App) getStatus() string {
	var parts []string
	if p, ok := a.session.State().Principal(); ok {
		parts = append(parts, p.Email)
	} else if m := a.flow.Mode(); m != signup.LoginMode {
		parts = append(parts, m.String())
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}
