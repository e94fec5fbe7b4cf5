package storage

import (
	"context"
	"fmt"
	"os"

	logging "usage-report-bot/internal/infra/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Uploader puts objects into AWS S3 or an S3-compatible store (MinIO, Supabase).
type S3Uploader struct {
	client        *s3.Client
	bucket        string
	region        string
	endpoint      string
	publicBaseURL string
}

func NewS3Uploader(ctx context.Context, opts Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	} else if opts.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return &S3Uploader{
		client:        s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:        opts.Bucket,
		region:        region,
		endpoint:      opts.Endpoint,
		publicBaseURL: opts.PublicBaseURL,
	}, nil
}

func (u *S3Uploader) Name() string { return "s3" }

func (u *S3Uploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(pngContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}

	url := u.publicURL(key)
	logging.LogDebug("Chart uploaded", zap.String("provider", "s3"), zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (u *S3Uploader) publicURL(key string) string {
	switch {
	case u.publicBaseURL != "":
		return joinURL(u.publicBaseURL, key)
	case u.endpoint != "":
		return joinURL(joinURL(u.endpoint, u.bucket), key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	}
}

func (u *S3Uploader) Close() error { return nil }
