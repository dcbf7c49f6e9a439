// Package session owns the client's authentication state: it restores a
// stored session at startup, signs users in and out, refreshes expired
// access tokens and tells subscribers about every state change.
//
// Manager is the only writer of the credential store. Its state moves
//
//	Initializing → Unauthenticated | Authenticated
//	Unauthenticated → Authenticated        (Login, Signup, VerifyCode)
//	Authenticated → Unauthenticated        (Logout, failed refresh)
//
// and never returns to Initializing. A failed refresh is the only automatic
// sign-out; other network failures leave the state as it was and are
// returned to the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/credstore"
	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/logging"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

const (
	refreshFlightKey     = "refresh"
	defaultLogoutTimeout = 5 * time.Second
)

var (
	errNoRefreshToken = errors.New("no refresh token stored")
	errNotSignedIn    = errors.New("not signed in")
)

// SignupResult tells the caller whether a verification code must follow.
type SignupResult struct {
	NeedsVerification bool
	Message           string
}

type Manager struct {
	api           client.Client
	store         credstore.Store
	logger        logging.Logger
	policy        RecoveryPolicy
	logoutTimeout time.Duration

	initOnce sync.Once
	flight   singleflight.Group

	// notifyMu orders set+notify so subscribers observe transitions in sequence.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State
	subs     map[int]func(State)
	nextSub  int
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithRecoveryPolicy(p RecoveryPolicy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithLogoutTimeout bounds the best-effort server leg of Logout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.logoutTimeout = d
		}
	}
}

func NewManager(api client.Client, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		logger:        logging.Nop{},
		policy:        DefaultRecoveryPolicy(),
		logoutTimeout: defaultLogoutTimeout,
		state:         Initializing(),
		subs:          make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn for every future state change and returns a
// function that removes it. fn runs synchronously after the change and must
// not call state-changing methods of the Manager.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Initialize restores the stored session. Only the first call does any
// work; later calls return the settled state. On return Loading is false.
func (m *Manager) Initialize(ctx context.Context) State {
	m.initOnce.Do(func() { m.initialize(ctx) })
	return m.State()
}

func (m *Manager) initialize(ctx context.Context) {
	pair, ok, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn(ctx, "stored credentials unreadable, starting signed out", "error", err)
		m.clearLocal(ctx)
		return
	}
	if !ok {
		m.setState(ctx, Unauthenticated())
		return
	}

	principal, err := m.restore(ctx, pair.AccessToken)
	if err != nil {
		expired := &client.AuthError{Kind: client.KindSessionExpired, Err: err}
		m.logger.Warn(ctx, "stored session could not be restored", "error", expired)
		// A failed refresh has already signed out inside the flight.
		if m.State().Loading() {
			m.Logout(ctx)
		}
		return
	}
	m.setState(ctx, Authenticated(principal))
}

// restore verifies accessToken and, when it is rejected, refreshes and
// verifies again within the bounds of the recovery policy.
func (m *Manager) restore(ctx context.Context, accessToken string) (models.Principal, error) {
	var (
		principal models.Principal
		attempt   uint64
	)
	token := accessToken

	err := retry.Do(ctx, m.policy.backoff(), func(ctx context.Context) error {
		attempt++
		p, err := m.api.Verify(ctx, token)
		if err == nil {
			principal = p
			return nil
		}
		if attempt > m.policy.MaxRefreshAttempts {
			return err
		}

		m.logger.Info(ctx, "access token rejected, refreshing", "error", err)
		pair, rerr := m.refresh(ctx)
		if rerr != nil {
			return rerr
		}
		token = pair.AccessToken
		return retry.RetryableError(err)
	})
	return principal, err
}

// RefreshAccessToken exchanges the refresh token for a new pair. Concurrent
// callers share one network call. On any failure the session is signed out
// and false is returned.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	_, err := m.refresh(ctx)
	return err == nil
}

// refresh runs the exchange once for all concurrent callers, using the
// first caller's context. A failure signs out inside the flight so the
// sign-out happens once too.
func (m *Manager) refresh(ctx context.Context) (models.CredentialPair, error) {
	v, err, _ := m.flight.Do(refreshFlightKey, func() (any, error) {
		pair, err := m.exchange(ctx)
		if err != nil {
			m.logger.Warn(ctx, "token refresh failed, signing out", "error", err)
			m.Logout(ctx)
			return models.CredentialPair{}, err
		}
		return pair, nil
	})
	if err != nil {
		return models.CredentialPair{}, err
	}
	return v.(models.CredentialPair), nil
}

func (m *Manager) exchange(ctx context.Context) (models.CredentialPair, error) {
	stored, ok, err := m.store.Get(ctx)
	if err != nil {
		return models.CredentialPair{}, err
	}
	if !ok {
		return models.CredentialPair{}, errNoRefreshToken
	}

	res, err := m.api.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return models.CredentialPair{}, err
	}
	if err := m.store.Set(ctx, res.Tokens); err != nil {
		return models.CredentialPair{}, fmt.Errorf("store refreshed credentials: %w", err)
	}

	// During startup the principal comes from the re-verify that follows.
	if res.Principal != nil {
		m.updatePrincipal(ctx, *res.Principal, func(models.Principal) bool { return true })
	}
	m.logger.Debug(ctx, "access token refreshed")
	return res.Tokens, nil
}

// Login signs in with email and password. On failure the state is untouched
// and the error carries the server's message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Info(ctx, "login failed", "email", email, "kind", client.KindOf(err))
		return err
	}
	return m.establish(ctx, res.Tokens, res.Principal, email)
}

// Signup registers a new account. When the server activates it at once the
// user is signed in; otherwise NeedsVerification is set and nothing changes.
func (m *Manager) Signup(ctx context.Context, email, password, name, department string) (SignupResult, error) {
	res, err := m.api.Signup(ctx, email, password, name, department)
	if err != nil {
		m.logger.Info(ctx, "signup failed", "email", email, "kind", client.KindOf(err))
		return SignupResult{}, err
	}
	if res.NeedsVerification() {
		m.logger.Info(ctx, "signup awaiting verification", "email", email)
		return SignupResult{NeedsVerification: true, Message: res.Message}, nil
	}
	if err := m.establish(ctx, res.Tokens, res.Principal, email); err != nil {
		return SignupResult{}, err
	}
	return SignupResult{Message: res.Message}, nil
}

// VerifyCode completes a pending signup and signs the user in.
func (m *Manager) VerifyCode(ctx context.Context, email, code string) error {
	res, err := m.api.VerifyCode(ctx, email, code)
	if err != nil {
		m.logger.Info(ctx, "verification failed", "email", email, "kind", client.KindOf(err))
		return err
	}
	return m.establish(ctx, res.Tokens, res.Principal, email)
}

// ResendCode asks the server to issue a new verification code and returns
// its message. The session state is not affected.
func (m *Manager) ResendCode(ctx context.Context, email string) (string, error) {
	return m.api.ResendCode(ctx, email)
}

// Logout signs out locally and then tells the server, best effort. Local
// cleanup happens before the network call and ignores cancellation of ctx,
// so neither a failing server nor an abandoned caller keeps tokens on disk.
func (m *Manager) Logout(ctx context.Context) {
	local := context.WithoutCancel(ctx)

	pair, ok, err := m.store.Get(local)
	if err != nil {
		m.logger.Warn(ctx, "reading credentials for logout failed", "error", err)
	}
	m.clearLocal(local)

	if !ok {
		return
	}
	netCtx, cancel := context.WithTimeout(local, m.logoutTimeout)
	defer cancel()
	if err := m.api.Logout(netCtx, pair.AccessToken); err != nil {
		m.logger.Warn(ctx, "server logout failed", "error", err)
	}
}

// Authorized runs call with the stored access token. When the server
// rejects the token the pair is refreshed once, shared with any refresh
// already in flight, and call is retried with the new token. If that
// refresh fails the session has been signed out and a KindSessionExpired
// error is returned.
func (m *Manager) Authorized(ctx context.Context, call func(ctx context.Context, accessToken string) error) error {
	token, ok := m.AccessToken(ctx)
	if !ok {
		return &client.AuthError{Kind: client.KindSessionExpired, Err: errNotSignedIn}
	}

	err := call(ctx, token)
	if !client.IsUnauthorized(err) {
		return err
	}

	m.logger.Info(ctx, "access token rejected, refreshing", "error", err)
	pair, rerr := m.refresh(ctx)
	if rerr != nil {
		return &client.AuthError{Kind: client.KindSessionExpired, Err: rerr}
	}
	return call(ctx, pair.AccessToken)
}

// IsAdmin asks the server for the caller's roles. Any error means false.
func (m *Manager) IsAdmin(ctx context.Context) bool {
	var p models.Principal
	err := m.Authorized(ctx, func(ctx context.Context, token string) error {
		var err error
		p, err = m.api.WhoAmI(ctx, token)
		return err
	})
	if err != nil {
		m.logger.Debug(ctx, "whoami failed", "error", err)
		return false
	}

	// Enrich the cached principal with profile fields only /me returns.
	m.updatePrincipal(ctx, p, func(current models.Principal) bool { return current.ID == p.ID })
	return p.IsAdmin
}

// AccessToken returns the stored access token for attaching to requests.
func (m *Manager) AccessToken(ctx context.Context) (string, bool) {
	pair, ok, err := m.store.Get(ctx)
	if err != nil || !ok {
		return "", false
	}
	return pair.AccessToken, true
}

// establish stores tokens and moves to Authenticated. Without a principal
// in the response it is rehydrated through verify.
func (m *Manager) establish(ctx context.Context, tokens models.CredentialPair, principal *models.Principal, email string) error {
	if err := m.store.Set(ctx, tokens); err != nil {
		m.logger.Error(ctx, "storing credentials failed", "error", err)
		return fmt.Errorf("store credentials: %w", err)
	}

	var p models.Principal
	if principal != nil {
		p = *principal
	} else if verified, err := m.api.Verify(ctx, tokens.AccessToken); err == nil {
		p = verified
	} else {
		m.logger.Debug(ctx, "principal lookup failed, using email", "error", err)
		p = models.Principal{Email: email}
	}
	m.setState(ctx, Authenticated(p))
	return nil
}

// clearLocal empties the store even when ctx is already cancelled.
func (m *Manager) clearLocal(ctx context.Context) {
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Error(ctx, "clearing credentials failed", "error", err)
	}
	m.setState(ctx, Unauthenticated())
}

func (m *Manager) setState(ctx context.Context, next State) {
	m.transition(ctx, func(State) (State, bool) { return next, true })
}

// updatePrincipal replaces the principal only while still authenticated and
// match accepts the current one, so a concurrent Logout is never undone.
func (m *Manager) updatePrincipal(ctx context.Context, p models.Principal, match func(models.Principal) bool) {
	m.transition(ctx, func(prev State) (State, bool) {
		current, ok := prev.Principal()
		if !ok || !match(current) {
			return prev, false
		}
		return Authenticated(p), true
	})
}

func (m *Manager) transition(ctx context.Context, step func(prev State) (State, bool)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	prev := m.state
	next, ok := step(prev)
	if !ok {
		m.mu.Unlock()
		return
	}
	m.state = next
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if prev != next {
		m.logger.Info(ctx, "session state changed", "from", prev.String(), "to", next.String())
	}
	for _, fn := range subs {
		fn(next)
	}
}
