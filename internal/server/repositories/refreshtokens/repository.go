// Package refreshtokens declares the server-side repository contract for
// issuing, looking up and revoking refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cityai/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete reports common.ErrorNotFound when nothing was removed, so a
	// token can be consumed exactly once.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID.
	DeleteByUser(ctx context.Context, userID string) error
}
