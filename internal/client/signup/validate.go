package signup

import (
	"errors"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/cityai/internal/client/client"
	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const minPasswordLength = 6

const (
	msgLoginRequired    = "Please enter your email and password."
	msgAllFields        = "Please fill in all fields."
	msgPasswordTooShort = "Password must be at least 6 characters."
	msgPasswordMismatch = "Passwords do not match."
	msgCodeFormat       = "Please enter the 6-digit verification code."
)

// SanitizeCode keeps the digits of s, at most the length of a code.
func SanitizeCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == common.VerificationCodeLength {
			break
		}
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateLogin checks the login form. Rules run in order and the first
// failure is reported.
func ValidateLogin(email, password string) error {
	return firstFailure(
		check(email, validation.Required.Error(msgLoginRequired)),
		check(password, validation.Required.Error(msgLoginRequired)),
	)
}

// ValidateDraft checks a signup draft before it is sent.
func ValidateDraft(d models.SignupDraft) error {
	required := validation.Required.Error(msgAllFields)
	return firstFailure(
		check(d.Email, required),
		check(d.Password, required),
		check(d.Name, required),
		check(d.Department, required),
		check(d.Password, validation.Length(minPasswordLength, 0).Error(msgPasswordTooShort)),
		check(d.PasswordConfirm, validation.By(equals(d.Password))),
	)
}

// ValidateCode checks an already sanitized verification code.
func ValidateCode(code string) error {
	return check(code,
		validation.Required.Error(msgCodeFormat),
		validation.Length(common.VerificationCodeLength, common.VerificationCodeLength).Error(msgCodeFormat),
		is.Digit.Error(msgCodeFormat),
	)
}

func equals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New(msgPasswordMismatch)
		}
		return nil
	}
}

// check turns the first failing rule into a validation error.
func check(value string, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return client.NewValidationError(err.Error())
	}
	return nil
}

func firstFailure(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
