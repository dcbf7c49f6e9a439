package client

import (
	"context"

	"github.com/dmitrijs2005/cityai/internal/client/models"
)

// AuthResult is what login, verify-code and refresh return: a fresh pair and,
// when the server includes it, the principal.
type AuthResult struct {
	Tokens    models.CredentialPair
	Principal *models.Principal
	Message   string
}

// SignupResult carries tokens only when the account was activated
// immediately; zero Tokens means a verification code was sent.
type SignupResult struct {
	Tokens    models.CredentialPair
	Principal *models.Principal
	Message   string
}

// NeedsVerification reports whether the signup must be confirmed with a code.
func (r SignupResult) NeedsVerification() bool {
	return !r.Tokens.Complete()
}

// Client is the transport-agnostic contract of the backend auth API.
type Client interface {
	Ping(ctx context.Context) error
	Verify(ctx context.Context, accessToken string) (models.Principal, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Signup(ctx context.Context, email, password, name, department string) (*SignupResult, error)
	VerifyCode(ctx context.Context, email, code string) (*AuthResult, error)
	ResendCode(ctx context.Context, email string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessToken string) error
	WhoAmI(ctx context.Context, accessToken string) (models.Principal, error)
}
