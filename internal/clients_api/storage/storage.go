package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown storage provider")

const pngContentType = "image/png"

// Uploader publishes a local file under key and returns the public URL of the object.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	Name() string
	Close() error
}

type Options struct {
	Provider      string // s3, gcs, azure or local
	Bucket        string // bucket or Azure container
	PublicBaseURL string // overrides the provider URL scheme, e.g. a CDN

	// S3 and S3-compatible storage
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	GCSCredentialsFile string

	AzureAccount          string
	AzureKey              string
	AzureConnectionString string

	LocalDir string
}

func New(ctx context.Context, opts Options) (Uploader, error) {
	switch strings.ToLower(opts.Provider) {
	case "s3":
		return NewS3Uploader(ctx, opts)
	case "gcs":
		return NewGCSUploader(ctx, opts)
	case "azure":
		return NewAzureUploader(opts)
	case "local", "":
		return NewLocalUploader(opts.LocalDir, opts.PublicBaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}

// joinURL joins a base URL and an object key with exactly one slash.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
