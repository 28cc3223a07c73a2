// Package gcs stores objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"

	"github.com/VivekAsole/video-processing-backend/internal/ports"
)

type Client struct {
	client *storage.Client
	bucket string
	prefix string
}

// New wraps an existing client. prefix, when set, is prepended to every
// object key.
func New(client *storage.Client, bucket, prefix string) *Client {
	return &Client{client: client, bucket: bucket, prefix: prefix}
}

func (c *Client) Provider() string { return "gcs" }

func (c *Client) object(key string) *storage.ObjectHandle {
	return c.client.Bucket(c.bucket).Object(path.Join(c.prefix, key))
}

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	wc := c.object(in.ObjectKey).NewWriter(ctx)
	if in.ContentType != "" {
		wc.ContentType = in.ContentType
	}

	n, err := io.Copy(wc, in.Reader)
	if err != nil {
		_ = wc.Close()
		return ports.PutObjectOutput{}, fmt.Errorf("gcs upload %s: %w", in.ObjectKey, err)
	}
	if err := wc.Close(); err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gcs upload %s: %w", in.ObjectKey, err)
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	r, err := c.object(objectKey).NewReader(ctx)
	if err != nil {
		return nil, "", 0, notFound(err, objectKey)
	}
	return r, r.Attrs.ContentType, r.Attrs.Size, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	return notFound(c.object(objectKey).Delete(ctx), objectKey)
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.Bucket(c.bucket).Attrs(ctx)
	return err
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

func notFound(err error, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ports.ErrObjectNotFound, key)
	}
	return err
}
