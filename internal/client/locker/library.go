package locker

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
)

// pageSize is the page size requested while walking the catalog.
const pageSize = 100

// Folders buckets catalog records by folder.
type Folders struct {
	Photos    []media.Item
	Videos    []media.Item
	Documents []media.Item
}

// Get returns the bucket for f.
func (fs Folders) Get(f media.Folder) []media.Item {
	switch f {
	case media.Photos:
		return fs.Photos
	case media.Videos:
		return fs.Videos
	case media.Documents:
		return fs.Documents
	}
	return nil
}

// Len is the number of records across all buckets.
func (fs Folders) Len() int {
	return len(fs.Photos) + len(fs.Videos) + len(fs.Documents)
}

// Partition buckets items by their folder value. Items with an unknown
// folder land in no bucket.
func Partition(items []media.Item) Folders {
	var fs Folders
	for _, it := range items {
		f, ok := media.ParseFolder(it.Folder)
		if !ok {
			continue
		}
		switch f {
		case media.Photos:
			fs.Photos = append(fs.Photos, it)
		case media.Videos:
			fs.Videos = append(fs.Videos, it)
		case media.Documents:
			fs.Documents = append(fs.Documents, it)
		}
	}
	return fs
}

// Library reads and removes what the caller stored.
type Library struct {
	store   ObjectStore
	catalog Catalog
	logger  logging.Logger
}

func NewLibrary(store ObjectStore, catalog Catalog, logger logging.Logger) *Library {
	return &Library{store: store, catalog: catalog, logger: logger.With("module", "library")}
}

// List fetches every record visible to the caller and buckets them by
// folder. Scoping by owner is the catalog's job; the query is unfiltered.
// Failures are logged and yield empty folders.
func (l *Library) List(ctx context.Context) Folders {
	var (
		all   []media.Item
		token string
		seen  = map[string]struct{}{}
	)
	for {
		page, err := l.catalog.List(ctx, ListQuery{Limit: pageSize, NextToken: token})
		if err != nil {
			l.logger.Warn(ctx, "listing failed", "error", err)
			return Folders{}
		}
		all = append(all, page.Items...)

		token = page.NextToken
		if token == "" {
			break
		}
		if _, dup := seen[token]; dup {
			l.logger.Warn(ctx, "listing failed", "error", "catalog returned a repeated page token")
			return Folders{}
		}
		seen[token] = struct{}{}
	}
	return Partition(all)
}

// Delete removes the object under key and then the record id. The record is
// left alone when the object can not be removed.
func (l *Library) Delete(ctx context.Context, id, key string) error {
	if err := l.store.Remove(ctx, key); err != nil {
		l.logger.Error(ctx, "object delete failed", "id", id, "key", key, "error", err)
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	if err := l.catalog.Delete(ctx, id); err != nil {
		l.logger.Error(ctx, "record delete failed after object removal", "id", id, "key", key, "error", err)
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	l.logger.Info(ctx, "file deleted", "id", id, "key", key)
	return nil
}

// URL returns a short-lived download URL for key.
func (l *Library) URL(ctx context.Context, key string) (string, error) {
	u, err := l.store.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", key, err)
	}
	return u, nil
}
