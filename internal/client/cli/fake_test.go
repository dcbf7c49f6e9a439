package cli

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/models"
)

// fakeAPI implements client.Client with one known account.
type fakeAPI struct {
	mu sync.Mutex

	PingErr error

	user     models.Principal
	password string
	pending  bool

	loggedOut []string
}

const (
	fakeAccess  = "access-1"
	fakeRefresh = "refresh-1"
	fakeCode    = "123456"
)

func (f *fakeAPI) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}

func (f *fakeAPI) Verify(_ context.Context, token string) (models.Principal, error) {
	if token != fakeAccess {
		return models.Principal{}, &client.AuthError{Kind: client.KindCredential, Message: "invalid token", Err: client.ErrUnauthorized}
	}
	return f.user, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.AuthResult, error) {
	if email != f.user.Email || password != f.password {
		return nil, client.NewCredentialError("Invalid email or password")
	}
	if f.pending {
		return nil, client.NewCredentialError("Email verification required")
	}
	u := f.user
	return &client.AuthResult{Tokens: models.CredentialPair{AccessToken: fakeAccess, RefreshToken: fakeRefresh}, Principal: &u}, nil
}

func (f *fakeAPI) Signup(_ context.Context, email, password, name, department string) (*client.SignupResult, error) {
	if email == f.user.Email {
		return nil, client.NewCredentialError("Email already registered")
	}
	f.user = models.Principal{ID: "u-" + email, Email: email, Name: name, Department: department, Role: "user"}
	f.password = password
	f.pending = true
	return &client.SignupResult{Message: "Verification code sent"}, nil
}

func (f *fakeAPI) VerifyCode(_ context.Context, email, code string) (*client.AuthResult, error) {
	if email != f.user.Email || code != fakeCode {
		return nil, client.NewCredentialError("Invalid or expired code")
	}
	f.pending = false
	return &client.AuthResult{Tokens: models.CredentialPair{AccessToken: fakeAccess, RefreshToken: fakeRefresh}}, nil
}

func (f *fakeAPI) ResendCode(context.Context, string) (string, error) {
	return "Code sent again", nil
}

func (f *fakeAPI) Refresh(context.Context, string) (*client.AuthResult, error) {
	return nil, client.NewCredentialError("Invalid refresh token")
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	f.loggedOut = append(f.loggedOut, token)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) WhoAmI(_ context.Context, token string) (models.Principal, error) {
	if token != fakeAccess {
		return models.Principal{}, client.NewCredentialError("invalid token")
	}
	return f.user, nil
}
