// Package crop extracts finalized rectangles out of rendered surfaces into
// standalone, preview-ready question images.
package crop

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// Two-threshold cleanup filter. Bright pixels become pure white (paper
// background), dark pixels are multiplied down (ink contrast), mid-range
// pixels pass through untouched. Static and deliberately lossy.
const (
	brightThreshold = 190
	darkThreshold   = 100
	darkenFactor    = 0.6
)

// Processor extracts backing-pixel rectangles from surfaces and encodes
// them as PNG. No network or disk side effects.
type Processor struct {
	log *logger.Logger
}

func NewProcessor(log *logger.Logger) *Processor {
	return &Processor{log: log}
}

// Extract copies sourceRect (backing pixel space) out of the surface into a
// raster sized exactly sourceRect.Width x sourceRect.Height, optionally
// applies the cleanup filter, and returns the PNG encoding.
func (p *Processor) Extract(surface *raster.Surface, sourceRect models.Rect, filterEnabled bool) ([]byte, error) {
	if sourceRect.Empty() {
		return nil, fmt.Errorf("crop rectangle is empty")
	}
	if !sourceRect.Within(surface.BackingWidth(), surface.BackingHeight()) {
		return nil, fmt.Errorf("crop rectangle %+v exceeds surface bounds %dx%d",
			sourceRect, surface.BackingWidth(), surface.BackingHeight())
	}

	out := image.NewRGBA(image.Rect(0, 0, sourceRect.Width, sourceRect.Height))
	for y := 0; y < sourceRect.Height; y++ {
		for x := 0; x < sourceRect.Width; x++ {
			c := surface.Img.RGBAAt(sourceRect.X+x, sourceRect.Y+y)
			if filterEnabled {
				c = cleanupPixel(c)
			}
			out.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	p.log.Trace("extracted %dx%d crop from page %d (filter=%v)",
		sourceRect.Width, sourceRect.Height, surface.Page, filterEnabled)

	return buf.Bytes(), nil
}

func cleanupPixel(c color.RGBA) color.RGBA {
	lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000

	switch {
	case lum > brightThreshold:
		return color.RGBA{255, 255, 255, c.A}
	case lum < darkThreshold:
		return color.RGBA{
			R: uint8(float64(c.R) * darkenFactor),
			G: uint8(float64(c.G) * darkenFactor),
			B: uint8(float64(c.B) * darkenFactor),
			A: c.A,
		}
	default:
		return c
	}
}
