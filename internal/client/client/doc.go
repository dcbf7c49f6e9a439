// Package client contains the client-side adapters to the platform backend.
//
// # Overview
//
//  1. A transport-agnostic contract of the auth API (see Client): verify,
//     login, signup, verify-code, resend-code, refresh, logout, whoami and a
//     liveness Ping.
//  2. An HTTP/JSON implementation (see HTTPClient) that attaches bearer
//     tokens, decodes the backend's `{success, message, ...}` envelopes and
//     FastAPI-style `{"detail": ...}` error bodies.
//  3. Local database bootstrap (InitDatabase, RunMigrations) applying the
//     embedded goose migrations to an SQLite file.
//
// # Error Handling
//
// Every failure is normalized into an *AuthError whose Kind tells callers
// how to react. Match with errors.Is against ErrValidation, ErrCredential,
// ErrSessionExpired, ErrUnavailable, ErrServer; token rejections surface as
// ErrUnauthorized.
//
// Timeouts and cancellation are the concern of this package: the HTTP client
// carries the configured timeout and every call honors its context.
package client
