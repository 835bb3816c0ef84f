// Package users declares and implements the storage of accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/safelocker/internal/server/models"
)

type Repository interface {
	// Create stores a new unconfirmed user. A taken email is common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Confirm(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}
