package selection

import (
	"image"

	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

const (
	// A pixel darker than this luminance counts as ink.
	inkLuminance = 128

	// A row is content when at least this fraction of its pixels is ink.
	minInkRatio = 0.004

	// Gap and minimum block heights in display pixels; scaled by the
	// surface quality before use against backing rows.
	maxGapRows     = 10
	minBlockHeight = 8
)

// MagicScan proposes candidate question rectangles inside an operator-drawn
// bounding region. It is a mode, not a one-shot action: entering the mode
// runs nothing, each Detect call runs one pass. Candidates are tied to the
// exact rendered raster they were produced from and are discarded, never
// re-projected, when the page or scale changes or the mode is left.
type MagicScan struct {
	active     bool
	candidates []models.Rect
	page       int
	scale      float64
	log        *logger.Logger
}

func NewMagicScan(log *logger.Logger) *MagicScan {
	return &MagicScan{log: log}
}

func (m *MagicScan) Active() bool {
	return m.active
}

// Toggle flips the mode. Leaving the mode discards outstanding candidates.
func (m *MagicScan) Toggle() bool {
	m.SetActive(!m.active)
	return m.active
}

func (m *MagicScan) SetActive(active bool) {
	if m.active && !active {
		m.discard()
	}
	m.active = active
}

// Candidates returns the current proposals in display space.
func (m *MagicScan) Candidates() []models.Rect {
	return m.candidates
}

// SurfaceChanged invalidates candidates when the rendered page or scale no
// longer matches the raster they were detected against.
func (m *MagicScan) SurfaceChanged(page int, scale float64) {
	if len(m.candidates) == 0 {
		return
	}
	if page != m.page || scale != m.scale {
		m.log.Debug("discarding %d candidates after surface change", len(m.candidates))
		m.discard()
	}
}

// Detect runs one ink-projection pass over bounds (display space) and
// stores the proposals. An unreadable or blank region yields zero
// candidates and the mode stays active.
func (m *MagicScan) Detect(surface *raster.Surface, bounds models.Rect) []models.Rect {
	if !m.active {
		return nil
	}

	m.candidates = nil
	m.page = surface.Page
	m.scale = surface.Scale

	if bounds.Empty() || !bounds.Within(surface.DisplayWidth(), surface.DisplayHeight()) {
		m.log.Debug("magic scan bounds %+v outside surface, no candidates", bounds)
		return nil
	}

	region := raster.ToBacking(bounds, surface)
	bands := contentBands(surface, region)

	for _, band := range bands {
		backing := models.Rect{
			X:      region.X,
			Y:      band.top,
			Width:  region.Width,
			Height: band.bottom - band.top,
		}
		m.candidates = append(m.candidates, raster.ToDisplay(backing, surface))
	}

	m.log.Debug("magic scan found %d candidates on page %d", len(m.candidates), m.page)
	return m.candidates
}

func (m *MagicScan) discard() {
	m.candidates = nil
	m.page = 0
	m.scale = 0
}

type band struct {
	top, bottom int
}

// contentBands groups rows with enough ink into vertical bands, tolerating
// small gaps between lines of the same question.
func contentBands(surface *raster.Surface, region models.Rect) []band {
	img := surface.Img
	maxGap := int(float64(maxGapRows) * surface.Quality)
	minHeight := int(float64(minBlockHeight) * surface.Quality)

	var bands []band
	inBand := false
	var top, lastInk int

	for y := region.Y; y < region.Y+region.Height; y++ {
		if rowHasInk(img, region.X, region.X+region.Width, y) {
			if !inBand {
				inBand = true
				top = y
			}
			lastInk = y
		} else if inBand && y-lastInk > maxGap {
			if lastInk-top+1 >= minHeight {
				bands = append(bands, band{top: top, bottom: lastInk + 1})
			}
			inBand = false
		}
	}

	if inBand && lastInk-top+1 >= minHeight {
		bands = append(bands, band{top: top, bottom: lastInk + 1})
	}

	return bands
}

func rowHasInk(img *image.RGBA, x0, x1, y int) bool {
	width := x1 - x0
	if width <= 0 {
		return false
	}

	ink := 0
	for x := x0; x < x1; x++ {
		c := img.RGBAAt(x, y)
		lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
		if lum < inkLuminance {
			ink++
		}
	}

	return float64(ink)/float64(width) >= minInkRatio
}
