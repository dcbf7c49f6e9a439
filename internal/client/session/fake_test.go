package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/credstore"
	"github.com/dmitrijs2005/cityai/internal/client/models"
)

// ---- fake client ----

// fakeClient implements client.Client for Manager tests. Verify answers from
// the valid set; Refresh rotates to NextPair unless RefreshErr is set.
type fakeClient struct {
	mu sync.Mutex

	valid     map[string]models.Principal
	VerifyErr error

	LoginRes *client.AuthResult
	LoginErr error

	SignupRes *client.SignupResult
	SignupErr error

	VerifyCodeRes *client.AuthResult
	VerifyCodeErr error

	ResendMsg string
	ResendErr error

	NextPair   models.CredentialPair
	RefreshErr error
	// refreshGate, when set, blocks Refresh until closed.
	refreshGate chan struct{}

	LogoutErr error
	// logoutBlock, when set, blocks Logout until ctx is done.
	logoutBlock bool

	WhoAmIRes models.Principal
	WhoAmIErr error

	verifyCalls  atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32

	lastRefreshToken string
	lastLogoutToken  string
}

func newFakeClient() *fakeClient {
	return &fakeClient{valid: map[string]models.Principal{}}
}

func (f *fakeClient) allow(token string, p models.Principal) {
	f.mu.Lock()
	f.valid[token] = p
	f.mu.Unlock()
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) Verify(_ context.Context, token string) (models.Principal, error) {
	f.verifyCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VerifyErr != nil {
		return models.Principal{}, f.VerifyErr
	}
	p, ok := f.valid[token]
	if !ok {
		return models.Principal{}, &client.AuthError{Kind: client.KindCredential, Message: "invalid token", Err: client.ErrUnauthorized}
	}
	return p, nil
}

func (f *fakeClient) Login(context.Context, string, string) (*client.AuthResult, error) {
	return f.LoginRes, f.LoginErr
}

func (f *fakeClient) Signup(context.Context, string, string, string, string) (*client.SignupResult, error) {
	return f.SignupRes, f.SignupErr
}

func (f *fakeClient) VerifyCode(context.Context, string, string) (*client.AuthResult, error) {
	return f.VerifyCodeRes, f.VerifyCodeErr
}

func (f *fakeClient) ResendCode(context.Context, string) (string, error) {
	return f.ResendMsg, f.ResendErr
}

func (f *fakeClient) Refresh(ctx context.Context, refreshToken string) (*client.AuthResult, error) {
	f.refreshCalls.Add(1)
	if f.refreshGate != nil {
		select {
		case <-f.refreshGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRefreshToken = refreshToken
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	return &client.AuthResult{Tokens: f.NextPair}, nil
}

func (f *fakeClient) Logout(ctx context.Context, accessToken string) error {
	f.logoutCalls.Add(1)
	f.mu.Lock()
	f.lastLogoutToken = accessToken
	f.mu.Unlock()
	if f.logoutBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.LogoutErr
}

func (f *fakeClient) WhoAmI(context.Context, string) (models.Principal, error) {
	return f.WhoAmIRes, f.WhoAmIErr
}

// ---- fake store ----

// failingStore wraps a Store and fails the selected operations.
type failingStore struct {
	inner    credstore.Store
	GetErr   error
	SetErr   error
	clearCnt atomic.Int32
}

func (s *failingStore) Get(ctx context.Context) (models.CredentialPair, bool, error) {
	if s.GetErr != nil {
		return models.CredentialPair{}, false, s.GetErr
	}
	return s.inner.Get(ctx)
}

func (s *failingStore) Set(ctx context.Context, p models.CredentialPair) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	return s.inner.Set(ctx, p)
}

func (s *failingStore) Clear(ctx context.Context) error {
	s.clearCnt.Add(1)
	return s.inner.Clear(ctx)
}
