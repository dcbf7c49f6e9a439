// Package signup drives the sign-in screen: the login form, account
// registration and the email verification step that may follow it.
//
// The flow validates input before calling the session, so a rejected form
// never reaches the network. What the server says is shown as is.
package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/client/session"
)

type Mode int

const (
	LoginMode Mode = iota
	SignupMode
	VerifyMode
)

func (m Mode) String() string {
	switch m {
	case LoginMode:
		return "login"
	case SignupMode:
		return "signup"
	case VerifyMode:
		return "verify"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Outcome reports where a submitted form left the user.
type Outcome int

const (
	// Stayed: the form was rejected and the mode is unchanged.
	Stayed Outcome = iota
	// AwaitingCode: the account exists and a verification code was sent.
	AwaitingCode
	// SignedIn: the session is now authenticated.
	SignedIn
)

// ErrWrongMode is returned when an action does not belong to the current mode.
var ErrWrongMode = errors.New("action not available in this mode")

const (
	fallbackLogin   = "An error occurred while signing in."
	fallbackSignup  = "An error occurred during sign up."
	fallbackVerify  = "An error occurred during verification."
	fallbackResend  = "Failed to resend the verification code."
	noticeCodeSent  = "A verification code has been sent to your email."
	noticeResent    = "The verification code has been sent again."
	noticeCompleted = "Sign up complete!"
)

// Session is what the flow needs from session.Manager.
type Session interface {
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password, name, department string) (session.SignupResult, error)
	VerifyCode(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) (string, error)
}

// Flow is the login ⇄ signup ⇄ verify state machine. It is meant to be
// driven from a single goroutine.
type Flow struct {
	sess Session

	mode      Mode
	draft     models.SignupDraft
	challenge models.VerificationChallenge

	notice string
	errMsg string
}

func NewFlow(sess Session) *Flow {
	return &Flow{sess: sess, mode: LoginMode}
}

func (f *Flow) Mode() Mode { return f.mode }

// Notice is the last success banner, empty when none.
func (f *Flow) Notice() string { return f.notice }

// Error is the last error banner, empty when none.
func (f *Flow) Error() string { return f.errMsg }

// Draft returns the signup form as last submitted.
func (f *Flow) Draft() models.SignupDraft { return f.draft }

// Challenge returns the pending verification; ok is false outside VerifyMode.
func (f *Flow) Challenge() (models.VerificationChallenge, bool) {
	if f.mode != VerifyMode {
		return models.VerificationChallenge{}, false
	}
	return f.challenge, true
}

// SwitchToSignup opens the registration form.
func (f *Flow) SwitchToSignup() {
	if f.mode == VerifyMode {
		f.challenge = models.VerificationChallenge{}
	}
	f.mode = SignupMode
	f.clearBanners()
}

// SwitchToLogin returns to the login form from anywhere, dropping the
// draft and any pending verification.
func (f *Flow) SwitchToLogin() {
	f.mode = LoginMode
	f.draft = models.SignupDraft{}
	f.challenge = models.VerificationChallenge{}
	f.clearBanners()
}

// CancelVerification goes back from the code prompt to the signup form.
// The draft is kept so the user can correct it.
func (f *Flow) CancelVerification() error {
	if f.mode != VerifyMode {
		return ErrWrongMode
	}
	f.mode = SignupMode
	f.challenge = models.VerificationChallenge{}
	f.clearBanners()
	return nil
}

// Login submits the login form.
func (f *Flow) Login(ctx context.Context, email, password string) (Outcome, error) {
	if f.mode != LoginMode {
		return Stayed, ErrWrongMode
	}
	f.errMsg = ""
	if err := ValidateLogin(email, password); err != nil {
		return f.reject(err, "")
	}
	if err := f.sess.Login(ctx, email, password); err != nil {
		return f.reject(err, fallbackLogin)
	}
	f.reset()
	return SignedIn, nil
}

// Signup submits the registration form. When the server wants the email
// confirmed the flow moves to VerifyMode; otherwise the user is signed in.
func (f *Flow) Signup(ctx context.Context, d models.SignupDraft) (Outcome, error) {
	if f.mode != SignupMode {
		return Stayed, ErrWrongMode
	}
	f.errMsg = ""
	f.draft = d
	if err := ValidateDraft(d); err != nil {
		return f.reject(err, "")
	}

	res, err := f.sess.Signup(ctx, d.Email, d.Password, d.Name, d.Department)
	if err != nil {
		return f.reject(err, fallbackSignup)
	}
	if !res.NeedsVerification {
		f.reset()
		f.notice = res.Message
		return SignedIn, nil
	}

	f.mode = VerifyMode
	f.challenge = models.VerificationChallenge{Email: d.Email}
	f.notice = res.Message
	if f.notice == "" {
		f.notice = noticeCodeSent
	}
	return AwaitingCode, nil
}

// Verify submits a verification code. Non-digits are dropped first.
func (f *Flow) Verify(ctx context.Context, code string) (Outcome, error) {
	if f.mode != VerifyMode {
		return Stayed, ErrWrongMode
	}
	f.errMsg = ""
	f.challenge.Code = SanitizeCode(code)
	if err := ValidateCode(f.challenge.Code); err != nil {
		return f.reject(err, "")
	}
	if err := f.sess.VerifyCode(ctx, f.challenge.Email, f.challenge.Code); err != nil {
		return f.reject(err, fallbackVerify)
	}
	f.reset()
	f.notice = noticeCompleted
	return SignedIn, nil
}

// Resend asks for a new code for the pending verification.
func (f *Flow) Resend(ctx context.Context) error {
	if f.mode != VerifyMode {
		return ErrWrongMode
	}
	f.errMsg = ""
	msg, err := f.sess.ResendCode(ctx, f.challenge.Email)
	if err != nil {
		_, err = f.reject(err, fallbackResend)
		return err
	}
	f.notice = msg
	if f.notice == "" {
		f.notice = noticeResent
	}
	return nil
}

// reject records err as the error banner. Errors without a user-facing
// message show fallback.
func (f *Flow) reject(err error, fallback string) (Outcome, error) {
	f.notice = ""
	f.errMsg = client.UserMessage(err, fallback)
	return Stayed, err
}

// reset puts the flow back to an empty login form after signing in.
func (f *Flow) reset() {
	f.mode = LoginMode
	f.draft = models.SignupDraft{}
	f.challenge = models.VerificationChallenge{}
	f.clearBanners()
}

func (f *Flow) clearBanners() {
	f.notice = ""
	f.errMsg = ""
}
