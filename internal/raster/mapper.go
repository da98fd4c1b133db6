package raster

import (
	"math"

	"github.com/kovancilartr/quizclip/pkg/models"
)

// Coordinate mapping between a surface's display space and its backing
// pixel space. The factor is recomputed from the surface metadata on every
// call so a scale or quality change can never leak a stale ratio.

// ToBacking converts a display-space rectangle to backing pixel space.
func ToBacking(r models.Rect, s *Surface) models.Rect {
	f := backingFactor(s)
	return scaleRect(r, f)
}

// ToDisplay converts a backing-space rectangle to display space. For any
// rect r, ToDisplay(ToBacking(r, s), s) reproduces r within one pixel of
// rounding error per edge.
func ToDisplay(r models.Rect, s *Surface) models.Rect {
	f := backingFactor(s)
	return scaleRect(r, 1/f)
}

func backingFactor(s *Surface) float64 {
	return float64(s.BackingWidth()) / float64(s.DisplayWidth())
}

func scaleRect(r models.Rect, f float64) models.Rect {
	return models.Rect{
		X:      int(math.Round(float64(r.X) * f)),
		Y:      int(math.Round(float64(r.Y) * f)),
		Width:  int(math.Round(float64(r.Width) * f)),
		Height: int(math.Round(float64(r.Height) * f)),
	}
}
