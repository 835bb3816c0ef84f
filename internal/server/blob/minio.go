package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore talks to MinIO (or S3) through minio-go.
type MinioStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewMinioStore builds a client for o. o.Endpoint may carry a scheme; https
// turns TLS on.
func NewMinioStore(o Options) (*MinioStore, error) {
	host, secure, err := splitEndpoint(o.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: secure,
		Region: o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: o.Bucket, ttl: o.TTL}, nil
}

func splitEndpoint(endpoint string) (host string, secure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	return u.Host, u.Scheme == "https", nil
}

func (m *MinioStore) TTL() time.Duration { return m.ttl }

// PresignPut signs the URL only; minio-go does not bind the content type or
// length into presigned PUTs.
func (m *MinioStore) PresignPut(ctx context.Context, key, contentType string, size int64) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string) (string, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
