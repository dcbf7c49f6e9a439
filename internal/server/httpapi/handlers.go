package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cityai/internal/api"
	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/server/users"
)

// Messages shown to the user verbatim by the client.
const (
	msgCodeSent           = "Verification code sent. Please check your email."
	msgSignupComplete     = "Sign up complete."
	msgAlreadyRegistered  = "This email is already registered."
	msgVerified           = "Email verification complete!"
	msgInvalidCode        = "The verification code is invalid or has expired."
	msgTooManyAttempts    = "Too many attempts. Please request a new code."
	msgCodeResent         = "Verification code resent."
	msgResendFailed       = "Could not resend the verification code."
	msgLoggedIn           = "Login successful!"
	msgInvalidCredentials = "Invalid email or password."
	msgEmailNotConfirmed  = "Email verification required. Please check your inbox."
	msgLoggedOut          = "Logged out."
	msgRefreshed          = "Token refreshed."
	msgRefreshFailed      = "Token refresh failed."
	msgAuthRequired       = "Authentication required"
	msgInvalidToken       = "Invalid token"
	msgInternal           = "Internal server error"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:    api.HealthStatusOK,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Service:   serviceName,
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "active", Service: "auth"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := decode(r, &req); err != nil {
		writeValidation(w, "body", err)
		return
	}
	if err := validateSignup(&req); err != nil {
		writeValidation(w, "body", err)
		return
	}

	res, err := s.users.Signup(r.Context(), users.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
	})
	switch {
	case errors.Is(err, users.ErrAlreadyRegistered):
		writeRejected(w, msgAlreadyRegistered)
		return
	case err != nil:
		s.internalError(w, r, "signup", err)
		return
	}

	if res.Session != nil {
		writeSession(w, msgSignupComplete, res.Session)
		return
	}
	writeJSON(w, http.StatusOK, api.AuthResponse{
		Success: true,
		Message: msgCodeSent,
		User:    principalOf(res.User),
	})
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyCodeRequest
	if err := decode(r, &req); err != nil {
		writeValidation(w, "body", err)
		return
	}
	if err := validateVerifyCode(&req); err != nil {
		writeValidation(w, "body", err)
		return
	}

	sess, err := s.users.VerifyCode(r.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, users.ErrInvalidCode):
		writeRejected(w, msgInvalidCode)
	case errors.Is(err, users.ErrTooManyAttempts):
		writeRejected(w, msgTooManyAttempts)
	case err != nil:
		s.internalError(w, r, "verify code", err)
	default:
		writeSession(w, msgVerified, sess)
	}
}

func (s *Server) resendCode(w http.ResponseWriter, r *http.Request) {
	var req api.ResendCodeRequest
	if err := decode(r, &req); err != nil {
		writeValidation(w, "body", err)
		return
	}
	if err := validateResendCode(&req); err != nil {
		writeValidation(w, "body", err)
		return
	}

	err := s.users.ResendCode(r.Context(), req.Email)
	switch {
	case errors.Is(err, users.ErrNoPendingCode):
		writeRejected(w, msgResendFailed)
	case err != nil:
		s.internalError(w, r, "resend code", err)
	default:
		writeJSON(w, http.StatusOK, api.AuthResponse{Success: true, Message: msgCodeResent})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decode(r, &req); err != nil {
		writeValidation(w, "body", err)
		return
	}
	if err := validateLogin(&req); err != nil {
		writeValidation(w, "body", err)
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		writeRejected(w, msgInvalidCredentials)
	case errors.Is(err, users.ErrEmailNotConfirmed):
		writeRejected(w, msgEmailNotConfirmed)
	case err != nil:
		s.internalError(w, r, "login", err)
	default:
		writeSession(w, msgLoggedIn, sess)
	}
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(common.RefreshTokenParam)
	if token == "" {
		writeJSON(w, http.StatusUnprocessableEntity, api.ValidationErrorResponse{Detail: []api.ValidationIssue{{
			Loc:  []string{"query", common.RefreshTokenParam},
			Msg:  "Field required",
			Type: "missing",
		}}})
		return
	}

	sess, err := s.users.Refresh(r.Context(), token)
	switch {
	case errors.Is(err, users.ErrInvalidRefreshToken), errors.Is(err, common.ErrRefreshTokenExpired):
		writeRejected(w, msgRefreshFailed)
	case err != nil:
		s.internalError(w, r, "refresh", err)
	default:
		writeSession(w, msgRefreshed, sess)
	}
}

// logout always succeeds; a known token additionally revokes the user's
// refresh tokens.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := currentUser(r.Context()); ok {
		if err := s.users.Logout(r.Context(), u.ID); err != nil {
			s.logger.Warn(r.Context(), "logout", "user_id", u.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, api.AuthResponse{Success: true, Message: msgLoggedOut})
}

func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, api.VerifyResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, api.VerifyResponse{Valid: true, User: principalOf(u)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}
	writeJSON(w, http.StatusOK, principalOf(u))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(r.Context(), op, "error", err)
	writeDetail(w, http.StatusInternalServerError, msgInternal)
}
