package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logging "usage-report-bot/internal/infra/log"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

const defaultLocalDir = "data_out/public"

// LocalUploader copies files into a directory, typically one served by a
// static web server at publicBaseURL.
type LocalUploader struct {
	dir           string
	publicBaseURL string
}

func NewLocalUploader(dir, publicBaseURL string) (*LocalUploader, error) {
	if dir == "" {
		dir = defaultLocalDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local storage dir: %w", err)
	}
	return &LocalUploader{dir: abs, publicBaseURL: publicBaseURL}, nil
}

func (u *LocalUploader) Name() string { return "local" }

func (u *LocalUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dest := filepath.Join(u.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(dest, u.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes the storage directory", key)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := atomic.WriteFile(dest, src); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", key, err)
	}

	url := "file://" + filepath.ToSlash(dest)
	if u.publicBaseURL != "" {
		url = joinURL(u.publicBaseURL, key)
	}
	logging.LogDebug("Chart stored", zap.String("provider", "local"), zap.String("path", dest))
	return url, nil
}

func (u *LocalUploader) Close() error { return nil }
