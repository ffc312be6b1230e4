package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archiver keeps a durable copy of consultation audio.
type Archiver interface {
	Archive(ctx context.Context, consultationID string, asset *Asset) (string, error)
}

type objectWriter func(ctx context.Context, object, contentType string) io.WriteCloser

// GCSArchiver uploads audio to a Cloud Storage bucket. Objects are private.
type GCSArchiver struct {
	client    *storage.Client
	bucket    string
	newWriter objectWriter
}

// NewGCSArchiver opens a Cloud Storage client for bucket.
func NewGCSArchiver(ctx context.Context, bucket, credentialsFile string) (*GCSArchiver, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	a := &GCSArchiver{client: c, bucket: bucket}
	a.newWriter = func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := c.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return a, nil
}

// Close releases the storage client.
func (a *GCSArchiver) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Archive uploads asset as consultations/<id>/<name> and returns its gs:// URI.
func (a *GCSArchiver) Archive(ctx context.Context, consultationID string, asset *Asset) (string, error) {
	f, err := os.Open(asset.Path)
	if err != nil {
		return "", fmt.Errorf("opening audio asset: %w", err)
	}
	defer f.Close()

	object := path.Join("consultations", consultationID, asset.Name)
	w := a.newWriter(ctx, object, BaseType(asset.MIMEType))

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}

var _ Archiver = (*GCSArchiver)(nil)
