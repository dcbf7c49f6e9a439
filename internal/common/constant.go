// Package common contains constants shared by the client and the development
// backend.
package common

// AuthorizationHeader carries the bearer access token on outbound requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the token in AuthorizationHeader.
const BearerPrefix = "Bearer "

// Auth API paths, relative to the backend base URL.
const (
	PathHealth     = "/api/health"
	PathVerify     = "/api/auth/verify"
	PathLogin      = "/api/auth/login"
	PathSignup     = "/api/auth/signup"
	PathVerifyCode = "/api/auth/verify-otp"
	PathResendCode = "/api/auth/resend-otp"
	PathRefresh    = "/api/auth/refresh"
	PathLogout     = "/api/auth/logout"
	PathWhoAmI     = "/api/auth/me"
	PathAuthStatus = "/api/auth/status"
)

// RefreshTokenParam is the query parameter of PathRefresh.
const RefreshTokenParam = "refresh_token"

// VerificationCodeLength is the number of digits in an emailed signup code.
const VerificationCodeLength = 6
