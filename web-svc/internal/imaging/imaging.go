// Package imaging shrinks menu photos before they are uploaded.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 1200
	DefaultQuality   = 80
	DefaultMaxPixels = 40_000_000
	ContentType      = "image/jpeg"
)

var ErrUnreadableImage = errors.New("unreadable image")

// Processor decodes jpeg, png, gif or webp input, scales it down to MaxWidth
// keeping the aspect ratio, and re-encodes it as jpeg. Images whose header
// declares more than MaxPixels are refused before any pixel is decoded.
type Processor struct {
	MaxWidth  int
	Quality   int
	MaxPixels int
}

func NewProcessor(maxWidth, quality int) Processor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return Processor{MaxWidth: maxWidth, Quality: quality, MaxPixels: DefaultMaxPixels}
}

func (p Processor) Process(data []byte) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	limit := p.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > limit/cfg.Height {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnreadableImage, cfg.Width, cfg.Height, limit)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, "", ErrUnreadableImage
	}
	if p.MaxWidth > 0 && width > p.MaxWidth {
		height = max(1, height*p.MaxWidth/width)
		width = p.MaxWidth
	}

	// jpeg has no alpha, so transparent areas land on white instead of black.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), ContentType, nil
}
