// Package selection owns the interactive selection rectangle and the
// vision-assisted candidate proposal mode ("magic scan").
package selection

import (
	"math"

	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// Quick-select proposes a centered default rectangle sized as a fixed
// fraction of the display area. A convenience default, not a detector.
const (
	quickSelectWidthFraction  = 0.45
	quickSelectHeightFraction = 0.20
)

// Selector tracks the current manual selection in display space. State is
// transient: it is cleared when a crop is accepted or discarded.
type Selector struct {
	selecting bool
	rect      models.Rect
	hasRect   bool
}

func NewSelector() *Selector {
	return &Selector{}
}

func (s *Selector) Start() {
	s.selecting = true
	s.rect = models.Rect{}
	s.hasRect = false
}

func (s *Selector) Update(rect models.Rect) {
	if !s.selecting {
		return
	}
	s.rect = rect
	s.hasRect = !rect.Empty()
}

// Rect returns the current selection, if one exists.
func (s *Selector) Rect() (models.Rect, bool) {
	return s.rect, s.hasRect
}

func (s *Selector) Clear() {
	s.selecting = false
	s.rect = models.Rect{}
	s.hasRect = false
}

// QuickSelect proposes a rectangle centered on the surface's display area.
func (s *Selector) QuickSelect(surface *raster.Surface) models.Rect {
	w := int(math.Round(float64(surface.DisplayWidth()) * quickSelectWidthFraction))
	h := int(math.Round(float64(surface.DisplayHeight()) * quickSelectHeightFraction))

	rect := models.Rect{
		X:      (surface.DisplayWidth() - w) / 2,
		Y:      (surface.DisplayHeight() - h) / 2,
		Width:  w,
		Height: h,
	}

	s.selecting = true
	s.rect = rect
	s.hasRect = true

	return rect
}
