// Package media stores catalog records (media_items).
package media

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// ListParams selects records of Owner, optionally of one Folder, ordered by
// (created_at, id) and starting strictly after the given position.
type ListParams struct {
	Owner        string
	Folder       string
	AfterCreated time.Time
	AfterID      string
	Limit        int
}

type Repository interface {
	// Create inserts it and fills in the ID and CreatedAt assigned by the database.
	Create(ctx context.Context, it *media.Item) (*media.Item, error)
	List(ctx context.Context, p ListParams) ([]media.Item, error)
	// Delete removes the record id of owner and returns it. A record that
	// does not exist or belongs to someone else is common.ErrorNotFound.
	Delete(ctx context.Context, owner, id string) (*media.Item, error)
}
