package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	logging "usage-report-bot/internal/infra/log"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSUploader writes objects to a Google Cloud Storage bucket.
type GCSUploader struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewGCSUploader uses the credentials file when set and Application Default
// Credentials otherwise.
func NewGCSUploader(ctx context.Context, opts Options) (*GCSUploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var clientOpts []option.ClientOption
	if opts.GCSCredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.GCSCredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{client: client, bucket: opts.Bucket, publicBaseURL: opts.PublicBaseURL}, nil
}

func (u *GCSUploader) Name() string { return "gcs" }

func (u *GCSUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = pngContentType
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s to gcs: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s in gcs: %w", key, err)
	}

	url := joinURL(fmt.Sprintf("https://storage.googleapis.com/%s", u.bucket), key)
	if u.publicBaseURL != "" {
		url = joinURL(u.publicBaseURL, key)
	}
	logging.LogDebug("Chart uploaded", zap.String("provider", "gcs"), zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
