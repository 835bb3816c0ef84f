package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/dbx"
	"github.com/dmitrijs2005/safelocker/internal/media"
)

const itemColumns = `id, owner, filename, key, file_type, folder, size, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*media.Item, error) {
	it := &media.Item{}
	err := s.Scan(&it.ID, &it.Owner, &it.Filename, &it.Key, &it.FileType, &it.Folder, &it.Size, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *PostgresRepository) Create(ctx context.Context, it *media.Item) (*media.Item, error) {
	query := `
		INSERT INTO media_items (owner, filename, key, file_type, folder, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	out := *it
	err := r.db.QueryRowContext(ctx, query, it.Owner, it.Filename, it.Key, it.FileType, it.Folder, it.Size).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) List(ctx context.Context, p ListParams) ([]media.Item, error) {
	var (
		sb   strings.Builder
		args = []any{p.Owner}
	)
	sb.WriteString(`SELECT ` + itemColumns + ` FROM media_items WHERE owner = $1`)

	if p.Folder != "" {
		args = append(args, p.Folder)
		fmt.Fprintf(&sb, ` AND folder = $%d`, len(args))
	}
	if p.AfterID != "" {
		args = append(args, p.AfterCreated, p.AfterID)
		fmt.Fprintf(&sb, ` AND (created_at, id) > ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, p.Limit)
	fmt.Fprintf(&sb, ` ORDER BY created_at, id LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]media.Item, 0, p.Limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) (*media.Item, error) {
	query := `DELETE FROM media_items WHERE id = $1 AND owner = $2 RETURNING ` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return it, nil
}
