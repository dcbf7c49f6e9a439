package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

func currentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

func bearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(common.BearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// authenticate resolves the bearer access token to a user and puts it in the
// request context. With required set, a missing or unusable token ends the
// request with 401; otherwise the handler runs without a user.
func (s *Server) authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get(common.AuthorizationHeader))
			if !ok {
				if required {
					writeDetail(w, http.StatusUnauthorized, msgAuthRequired)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			u, err := s.users.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, common.ErrInvalidToken) && !errors.Is(err, common.ErrTokenExpired) {
					s.logger.Error(r.Context(), "authenticate", "error", err)
					writeDetail(w, http.StatusInternalServerError, msgInternal)
					return
				}
				if required {
					writeDetail(w, http.StatusUnauthorized, msgInvalidToken)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", s.now().Sub(start).String(),
		)
	})
}
