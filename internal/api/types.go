// Package api holds the JSON wire types of the platform auth API. They are
// shared by the HTTP client and the development backend so both sides agree
// on field names.
package api

import "github.com/dmitrijs2005/cityai/internal/client/models"

// HealthStatusOK is the status reported by a live backend.
const HealthStatusOK = "healthy"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Service   string `json:"service,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type ResendCodeRequest struct {
	Email string `json:"email"`
}

// AuthResponse is the envelope of login, signup, verify-otp, resend-otp,
// refresh and logout.
type AuthResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	AccessToken  string            `json:"access_token,omitempty"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	User         *models.Principal `json:"user,omitempty"`
}

// Tokens returns the pair carried by the envelope (possibly incomplete).
func (r AuthResponse) Tokens() models.CredentialPair {
	return models.CredentialPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

type VerifyResponse struct {
	Valid bool              `json:"valid"`
	User  *models.Principal `json:"user,omitempty"`
}

// ErrorResponse mirrors the `{"detail": "..."}` body of a failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationIssue is one entry of a 422 `{"detail": [...]}` body.
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type ValidationErrorResponse struct {
	Detail []ValidationIssue `json:"detail"`
}

// StatusResponse is the body of the auth service status probe.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
