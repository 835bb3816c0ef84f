package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/blob"
	"github.com/dmitrijs2005/safelocker/internal/server/metrics"
)

// ObjectService hands out presigned URLs for the caller's own objects. Every
// key is confined to private/{owner}/.
type ObjectService struct {
	store   blob.Store
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewObjectService(store blob.Store, mt *metrics.Metrics, logger logging.Logger) *ObjectService {
	return &ObjectService{store: store, metrics: mt, logger: logger.With("module", "objects")}
}

// ObjectName is where key of owner lives in the bucket.
func ObjectName(owner, key string) string {
	return "private/" + owner + "/" + key
}

func checkKey(key string) error {
	if !media.ValidKey(key) {
		return common.Invalid(fmt.Sprintf("Invalid key %q.", key))
	}
	return nil
}

// PrepareUpload returns a URL accepting one PUT of the object.
func (s *ObjectService) PrepareUpload(ctx context.Context, owner, key, contentType string, size int64) (string, time.Time, error) {
	if err := checkKey(key); err != nil {
		return "", time.Time{}, err
	}
	if size < 0 {
		return "", time.Time{}, common.Invalid("Size must not be negative.")
	}

	expires := time.Now().Add(s.store.TTL())
	url, err := s.store.PresignPut(ctx, ObjectName(owner, key), contentType, size)
	if err != nil {
		s.failed(ctx, "put", key, err)
		return "", time.Time{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.metrics.UploadsPrepared.Inc()
	return url, expires, nil
}

// DownloadURL returns a retrieval URL. A missing object is common.ErrorNotFound.
func (s *ObjectService) DownloadURL(ctx context.Context, owner, key string) (string, time.Time, error) {
	if err := checkKey(key); err != nil {
		return "", time.Time{}, err
	}

	expires := time.Now().Add(s.store.TTL())
	url, err := s.store.PresignGet(ctx, ObjectName(owner, key))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", time.Time{}, err
		}
		s.failed(ctx, "get", key, err)
		return "", time.Time{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return url, expires, nil
}

func (s *ObjectService) Remove(ctx context.Context, owner, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ObjectName(owner, key)); err != nil {
		s.failed(ctx, "delete", key, err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

func (s *ObjectService) failed(ctx context.Context, op, key string, err error) {
	s.metrics.PresignFailures.WithLabelValues(op).Inc()
	s.logger.Error(ctx, "Object store call failed", "op", op, "key", key, "error", err)
}
