package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cityai/internal/client/guard"
	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/client/signup"
	"github.com/dmitrijs2005/cityai/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errSignedIn = errors.New("already signed in")

// Login prompts for email and password and signs in. Validation and server
// messages are printed as the flow reports them.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already signed in. Use 'logout' first.")
		return errSignedIn
	}
	if a.flow.Mode() != signup.LoginMode {
		a.flow.SwitchToLogin()
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	_, err = a.flow.Login(ctx, email, string(password))
	a.banner()
	return err
}

// Signup collects the registration form. When the server sends a code the
// flow waits for 'verify'.
func (a *App) Signup(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already signed in. Use 'logout' first.")
		return errSignedIn
	}
	a.flow.SwitchToSignup()

	var d models.SignupDraft
	var err error
	if d.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	d.Password, d.PasswordConfirm = string(password), string(confirm)

	if d.Name, err = getSimpleText(a.reader, "Enter name", a.out); err != nil {
		return err
	}
	if d.Department, err = getSimpleText(a.reader, "Enter department", a.out); err != nil {
		return err
	}

	out, err := a.flow.Signup(ctx, d)
	a.banner()
	if out == signup.AwaitingCode {
		fmt.Fprintln(a.out, "Type 'verify' to enter the code, 'resend' for a new one or 'back' to edit.")
	}
	return err
}

// Verify asks for the emailed code of a pending signup.
func (a *App) Verify(ctx context.Context) error {
	ch, ok := a.flow.Challenge()
	if !ok {
		fmt.Fprintln(a.out, "No verification pending. Use 'signup' first.")
		return signup.ErrWrongMode
	}

	code, err := getSimpleText(a.reader, fmt.Sprintf("Enter the 6-digit code sent to %s", ch.Email), a.out)
	if err != nil {
		return err
	}

	_, err = a.flow.Verify(ctx, code)
	a.banner()
	return err
}

// Resend requests a fresh verification code.
func (a *App) Resend(ctx context.Context) error {
	err := a.flow.Resend(ctx)
	if errors.Is(err, signup.ErrWrongMode) {
		fmt.Fprintln(a.out, "No verification pending.")
		return err
	}
	a.banner()
	return err
}

// Back leaves the verification step for the signup form, or the signup form
// for the login form. Signed-in users go back in the view history.
func (a *App) Back(_ context.Context) error {
	if a.isLoggedIn() {
		a.nav.Back()
		return nil
	}
	switch a.flow.Mode() {
	case signup.VerifyMode:
		if err := a.flow.CancelVerification(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Back to signup. Type 'signup' to submit again.")
	default:
		a.flow.SwitchToLogin()
		fmt.Fprintln(a.out, "Back to login.")
	}
	return nil
}

// Logout signs out. The local session is gone even if the server is down.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	a.session.Logout(ctx)
	a.flow.SwitchToLogin()
	return nil
}

// WhoAmI prints the signed-in principal, asking the server for the role.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	admin := a.session.IsAdmin(ctx)
	p, ok := a.session.State().Principal()
	if !ok {
		return nil
	}

	fmt.Fprintf(a.out, "Email:      %s\n", p.Email)
	if p.Name != "" {
		fmt.Fprintf(a.out, "Name:       %s\n", p.Name)
	}
	if p.Department != "" {
		fmt.Fprintf(a.out, "Department: %s\n", p.Department)
	}
	if p.Role != "" {
		fmt.Fprintf(a.out, "Role:       %s\n", p.Role)
	}
	fmt.Fprintf(a.out, "Admin:      %t\n", admin)
	return nil
}

// Home navigates to the home view; the guard decides what is shown.
func (a *App) Home(_ context.Context) error {
	a.nav.Navigate(guard.ViewHome)
	return nil
}

// Status prints the session state and the connectivity mode.
func (a *App) Status(_ context.Context) error {
	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "Session: %s\nServer:  %s\n", a.session.State(), mode)
	return nil
}
