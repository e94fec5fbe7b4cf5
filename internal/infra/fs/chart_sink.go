package fs

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"time"

	logging "usage-report-bot/internal/infra/log"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// DefaultChartsDir is used when no output directory is configured.
const DefaultChartsDir = "data_out/charts"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ChartSink writes finished chart images as PNG files into a scratch directory.
// The directory is created on the first write, not on construction.
type ChartSink struct {
	dir string
	now func() time.Time
}

func NewChartSink(dir string) *ChartSink {
	if dir == "" {
		dir = DefaultChartsDir
	}
	return &ChartSink{dir: dir, now: time.Now}
}

func (s *ChartSink) Dir() string { return s.dir }

// SavePNG encodes img and writes it to <dir>/<prefix>_<unix ms>_<uuid>.png.
// The file is written through a temp file and a rename, so a returned path always
// points to a complete image. The returned path is absolute.
func (s *ChartSink) SavePNG(img image.Image, prefix string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode chart png: %w", err)
	}
	if buf.Len() == 0 {
		return "", fmt.Errorf("chart png is empty after encoding")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}

	filename := filepath.Join(s.dir, s.fileName(prefix))
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("failed to resolve chart path: %w", err)
	}

	size := buf.Len()
	if err := atomic.WriteFile(absPath, &buf); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}

	logging.LogDebug("Chart written", zap.String("path", absPath), zap.Int("bytes", size))
	return absPath, nil
}

// Remove deletes a chart file after it has been published. Missing files are ignored.
func (s *ChartSink) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove chart file: %w", err)
	}
	return nil
}

func (s *ChartSink) fileName(prefix string) string {
	prefix = unsafeNameChars.ReplaceAllString(prefix, "_")
	if prefix == "" {
		prefix = "chart"
	}
	return fmt.Sprintf("%s_%d_%s.png", prefix, s.now().UnixMilli(), uuid.NewString())
}
