// Package blob issues presigned URLs for, and removes, objects kept in an
// S3-compatible bucket. The server never proxies object bytes.
package blob

import (
	"context"
	"time"
)

// DefaultContentType is signed into upload URLs when the caller names none.
// netx sends the same value for untyped files.
const DefaultContentType = "application/octet-stream"

// Store is an object store gateway. Keys are full object names.
type Store interface {
	// PresignPut returns a URL accepting one PUT of size bytes of contentType.
	PresignPut(ctx context.Context, key, contentType string, size int64) (string, error)
	// PresignGet returns a retrieval URL. A missing object is common.ErrorNotFound.
	PresignGet(ctx context.Context, key string) (string, error)
	// Delete removes the object. Removing a missing object succeeds.
	Delete(ctx context.Context, key string) error
	// TTL is how long issued URLs stay valid.
	TTL() time.Duration
}

// Options configure either backend.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	TTL       time.Duration
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return DefaultContentType
	}
	return ct
}
