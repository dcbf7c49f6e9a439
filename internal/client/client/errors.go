package client

import (
	"errors"
	"fmt"
)

// Sentinels callers match with errors.Is. An *AuthError matches the sentinel
// of its Kind.
var (
	ErrValidation     = errors.New("validation failed")
	ErrCredential     = errors.New("rejected by server")
	ErrSessionExpired = errors.New("session expired")
	ErrUnavailable    = errors.New("server unavailable")
	ErrServer         = errors.New("server error")

	// ErrUnauthorized means the server refused a token (verify, refresh, whoami).
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind classifies an AuthError.
type Kind int

const (
	// KindValidation: a client-side pre-check failed; nothing was sent.
	KindValidation Kind = iota + 1
	// KindCredential: the server rejected the request with a user-facing message.
	KindCredential
	// KindSessionExpired: verify and refresh both failed.
	KindSessionExpired
	// KindTransientNetwork: no server response was obtained.
	KindTransientNetwork
	// KindServer: a response arrived but was neither success nor a user-facing rejection.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCredential:
		return "credential"
	case KindSessionExpired:
		return "session_expired"
	case KindTransientNetwork:
		return "transient_network"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindCredential:
		return ErrCredential
	case KindSessionExpired:
		return ErrSessionExpired
	case KindTransientNetwork:
		return ErrUnavailable
	case KindServer:
		return ErrServer
	default:
		return nil
	}
}

// AuthError is the value every auth operation fails with. Message is safe to
// show to the user as-is; for KindCredential it is the server's own text.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewValidationError builds a KindValidation error with a user-facing message.
func NewValidationError(message string) *AuthError {
	return &AuthError{Kind: KindValidation, Message: message}
}

// NewCredentialError builds a KindCredential error carrying the server's message.
func NewCredentialError(message string) *AuthError {
	return &AuthError{Kind: KindCredential, Message: message}
}

// UserMessage extracts the text to display for err. Errors without a
// message fall back to fallback.
func UserMessage(err error, fallback string) string {
	var ae *AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// KindOf reports the Kind of err, or 0 when err is not an AuthError.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
