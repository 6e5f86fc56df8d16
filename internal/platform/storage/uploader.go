package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// Uploader writes export artifacts into a Cloud Storage bucket.
type Uploader struct {
	client *gcs.Client
	bucket string
}

// NewUploader constructs an Uploader bound to one bucket.
func NewUploader(client *gcs.Client, bucket string) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage uploader: bucket is required")
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

// Upload writes data to the named object, replacing any previous content.
func (u *Uploader) Upload(ctx context.Context, object, contentType string, data []byte) error {
	if u == nil || u.client == nil {
		return errors.New("storage uploader: client is not initialised")
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return errors.New("storage uploader: object name is required")
	}

	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s/%s: %w", u.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalise object %s/%s: %w", u.bucket, object, err)
	}
	return nil
}

// Bucket reports the bucket this uploader writes into.
func (u *Uploader) Bucket() string {
	return u.bucket
}
