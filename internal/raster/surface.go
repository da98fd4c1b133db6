// Package raster renders source-document pages into pixel surfaces and maps
// rectangles between a surface's display space and its backing pixel space.
package raster

import (
	"image"
	"math"
)

// Source supplies page renders for one document. Page numbers are 1-indexed.
type Source interface {
	ID() string
	PageCount() int
	RenderPage(page int, dpi float64) (*image.RGBA, error)
}

// Surface is one rendered page. The backing image is oversampled by the
// quality multiplier; the display size is what selection coordinates are
// expressed against. Regenerated on any parameter change, never persisted.
type Surface struct {
	DocumentID string
	Page       int
	Scale      float64
	Quality    float64
	Img        *image.RGBA

	displayWidth  int
	displayHeight int
}

func newSurface(docID string, page int, scale, quality float64, img *image.RGBA) *Surface {
	b := img.Bounds()
	return &Surface{
		DocumentID:    docID,
		Page:          page,
		Scale:         scale,
		Quality:       quality,
		Img:           img,
		displayWidth:  int(math.Round(float64(b.Dx()) / quality)),
		displayHeight: int(math.Round(float64(b.Dy()) / quality)),
	}
}

func (s *Surface) BackingWidth() int  { return s.Img.Bounds().Dx() }
func (s *Surface) BackingHeight() int { return s.Img.Bounds().Dy() }

// DisplayWidth is the on-screen width: backing width divided by quality.
func (s *Surface) DisplayWidth() int  { return s.displayWidth }
func (s *Surface) DisplayHeight() int { return s.displayHeight }
