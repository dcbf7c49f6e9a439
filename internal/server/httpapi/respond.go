package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrijs2005/cityai/internal/api"
	clientmodels "github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/server/models"
	"github.com/dmitrijs2005/cityai/internal/server/users"
	validation "github.com/go-ozzo/ozzo-validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, api.ErrorResponse{Detail: detail})
}

// writeValidation answers 422 with one issue per failed field, ordered by
// field name.
func writeValidation(w http.ResponseWriter, where string, err error) {
	var issues []api.ValidationIssue

	var fields validation.Errors
	if errors.As(err, &fields) {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			issues = append(issues, api.ValidationIssue{
				Loc:  []string{where, name},
				Msg:  fields[name].Error(),
				Type: "value_error",
			})
		}
	} else {
		issues = append(issues, api.ValidationIssue{Loc: []string{where}, Msg: err.Error(), Type: "value_error"})
	}

	writeJSON(w, http.StatusUnprocessableEntity, api.ValidationErrorResponse{Detail: issues})
}

func writeRejected(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, api.AuthResponse{Success: false, Message: message})
}

func writeSession(w http.ResponseWriter, message string, sess *users.Session) {
	writeJSON(w, http.StatusOK, api.AuthResponse{
		Success:      true,
		Message:      message,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		User:         principalOf(sess.User),
	})
}

// decode reads a JSON body into dst. Unknown fields are ignored.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func principalOf(u *models.User) *clientmodels.Principal {
	return &clientmodels.Principal{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		Role:       u.Role,
		IsAdmin:    u.IsAdmin(),
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
