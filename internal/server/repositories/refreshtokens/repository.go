// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/server/models"
)

// Repository defines operations for issuing, redeeming, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Consume deletes the token and returns what it was issued for, so a
	// token is redeemed at most once. A missing token is common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete removes a refresh token by its token string. Deleting a
	// non-existent token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteByUser revokes every refresh token of userID.
	DeleteByUser(ctx context.Context, userID string) error
}
