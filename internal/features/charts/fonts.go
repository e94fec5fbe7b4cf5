package charts

import (
	"fmt"
	"os"
	"sync"

	logging "usage-report-bot/internal/infra/log"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds parsed fonts. Parsed fonts are read-only and shared between
// render calls; faces carry glyph caches and are created per surface.
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

var (
	embeddedOnce  sync.Once
	embeddedFonts *fontSet
	embeddedErr   error
)

func loadEmbeddedFonts() (*fontSet, error) {
	embeddedOnce.Do(func() {
		regular, err := truetype.Parse(goregular.TTF)
		if err != nil {
			embeddedErr = fmt.Errorf("failed to parse embedded regular font: %w", err)
			return
		}
		bold, err := truetype.Parse(gobold.TTF)
		if err != nil {
			embeddedErr = fmt.Errorf("failed to parse embedded bold font: %w", err)
			return
		}
		embeddedFonts = &fontSet{regular: regular, bold: bold}
	})
	return embeddedFonts, embeddedErr
}

// loadFonts returns the embedded Go fonts, replaced by TrueType files when
// paths are given (for example a CJK font for non-Latin unit suffixes).
// A bold path falls back to the regular override, then to Go Bold.
func loadFonts(regularPath, boldPath string) (*fontSet, error) {
	base, err := loadEmbeddedFonts()
	if err != nil {
		return nil, err
	}
	set := *base

	if regularPath != "" {
		f, err := parseFontFile(regularPath)
		if err != nil {
			return nil, err
		}
		set.regular = f
		set.bold = f
		logging.LogInfo("Loaded chart font", zap.String("path", regularPath))
	}
	if boldPath != "" {
		f, err := parseFontFile(boldPath)
		if err != nil {
			return nil, err
		}
		set.bold = f
		logging.LogInfo("Loaded chart bold font", zap.String("path", boldPath))
	}
	return &set, nil
}

func parseFontFile(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

type faceKey struct {
	size float64
	bold bool
}

// faceCache creates faces lazily for one surface.
type faceCache struct {
	fonts *fontSet
	faces map[faceKey]font.Face
}

func newFaceCache(fonts *fontSet) *faceCache {
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(size float64, bold bool) font.Face {
	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}
	ttf := c.fonts.regular
	if bold {
		ttf = c.fonts.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
	c.faces[key] = f
	return f
}
