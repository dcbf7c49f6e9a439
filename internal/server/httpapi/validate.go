package httpapi

import (
	"regexp"

	"github.com/dmitrijs2005/cityai/internal/api"
	"github.com/dmitrijs2005/cityai/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var emailRules = []validation.Rule{
	validation.Required,
	validation.Length(3, 254),
	validation.Match(emailPattern).Error("must be a valid email address"),
}

func validateLogin(r *api.LoginRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, validation.Required),
	)
}

func validateSignup(r *api.SignupRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Department, validation.Required, validation.Length(1, 100)),
	)
}

func validateVerifyCode(r *api.VerifyCodeRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Code,
			validation.Required,
			validation.Length(common.VerificationCodeLength, common.VerificationCodeLength),
			is.Digit,
		),
	)
}

func validateResendCode(r *api.ResendCodeRequest) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, emailRules...),
	)
}
