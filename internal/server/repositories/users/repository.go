// Package users declares the account repository of the development backend.
package users

import (
	"context"

	"github.com/dmitrijs2005/cityai/internal/server/models"
)

// Repository stores accounts keyed by id and by (unique) email.
type Repository interface {
	// Create inserts user. A taken email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Update overwrites the mutable columns of an existing user.
	Update(ctx context.Context, user *models.User) error
}
