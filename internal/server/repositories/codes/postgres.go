package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/dbx"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, purpose models.CodePurpose, hash string, validity time.Duration) error {
	query := `
		INSERT INTO codes (user_id, purpose, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, string(purpose), hash, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID string, purpose models.CodePurpose) (*models.Code, error) {
	query := `
		SELECT code_hash, expires_at
		FROM codes
		WHERE user_id = $1 AND purpose = $2
	`

	c := &models.Code{UserID: userID, Purpose: purpose}
	if err := r.db.QueryRowContext(ctx, query, userID, string(purpose)).Scan(&c.Hash, &c.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, purpose models.CodePurpose) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM codes WHERE user_id = $1 AND purpose = $2`, userID, string(purpose)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
