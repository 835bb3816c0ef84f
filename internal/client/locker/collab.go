package locker

import (
	"context"
	"io"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// ObjectStore keeps object bytes scoped to the signed-in caller.
type ObjectStore interface {
	// Put writes size bytes from body under key and returns the confirmed
	// key. progress, when not nil, receives bytes transferred so far.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, progress func(loaded, total int64)) (string, error)

	// URL returns a short-lived retrieval URL. A missing object is an error.
	URL(ctx context.Context, key string) (string, error)

	// Remove deletes the object stored under key.
	Remove(ctx context.Context, key string) error
}

// NewItem carries the fields a client supplies when recording an object.
// Owner, ID and CreatedAt are assigned by the catalog.
type NewItem struct {
	Filename string
	Key      string
	FileType string
	Folder   string
	Size     int64
}

// ListQuery selects a page of catalog records. Zero values mean "no filter",
// "catalog default page size" and "first page".
type ListQuery struct {
	Folder    string
	Limit     int
	NextToken string
}

// Page is one page of catalog records.
type Page struct {
	Items     []media.Item
	NextToken string
}

// Catalog stores MediaItem records for the signed-in caller.
type Catalog interface {
	Create(ctx context.Context, in NewItem) (*media.Item, error)
	List(ctx context.Context, q ListQuery) (*Page, error)
	Delete(ctx context.Context, id string) error
}

// Change is a catalog record created or deleted by any client of the caller.
type Change struct {
	Deleted bool
	Item    media.Item
}

// Watcher streams the caller's catalog changes to fn until ctx is done or
// the subscription breaks.
type Watcher interface {
	Watch(ctx context.Context, fn func(Change)) error
}
