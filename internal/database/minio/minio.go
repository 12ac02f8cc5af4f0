package minio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"StudyMind/internal/config"
)

// Client wraps a MinIO client bound to one bucket, used to archive raw
// uploads alongside their extracted chunks.
type Client struct {
	client *minio.Client
	bucket string
}

// NewClient creates the MinIO client and ensures the configured bucket
// exists.
func NewClient(ctx context.Context, cfg *config.MinIOConfig) (*Client, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("MinIO health check failed: %w", err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Client{client: c, bucket: cfg.Bucket}, nil
}

// Put stores one object in the configured bucket.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// HealthCheck verifies connectivity and credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("MinIO client is not initialized")
	}
	if _, err := c.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	return nil
}
