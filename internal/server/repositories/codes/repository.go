// Package codes stores hashed one-time codes for sign-up confirmation and
// password reset.
package codes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/server/models"
)

type Repository interface {
	// Upsert stores hash as the only live code of userID for purpose.
	Upsert(ctx context.Context, userID string, purpose models.CodePurpose, hash string, validity time.Duration) error
	// Find returns the live code. A missing code is common.ErrorNotFound.
	Find(ctx context.Context, userID string, purpose models.CodePurpose) (*models.Code, error)
	Delete(ctx context.Context, userID string, purpose models.CodePurpose) error
}
