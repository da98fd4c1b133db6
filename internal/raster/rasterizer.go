package raster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kovancilartr/quizclip/pkg/logger"
)

// ErrSuperseded reports that a render was replaced by a newer request for
// the same surface. It is a normal outcome, not a failure.
var ErrSuperseded = errors.New("render superseded by a newer request")

// baseDPI is the PDF point resolution; scale and quality multiply it.
const baseDPI = 72.0

// Rasterizer renders pages for one viewing surface. At most one render is
// in flight at a time: a new request cancels the previous one outright and
// a superseded result is never published.
type Rasterizer struct {
	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	current  *Surface
	reported map[string]bool
	log      *logger.Logger
}

func NewRasterizer(log *logger.Logger) *Rasterizer {
	return &Rasterizer{
		reported: make(map[string]bool),
		log:      log,
	}
}

// Render rasterizes the given page at scale x quality oversampling and
// publishes the resulting surface, unless a newer request supersedes this
// one first. On decode failure the previously published surface stays in
// place and the error names the page.
func (r *Rasterizer) Render(ctx context.Context, src Source, page int, scale, quality float64) (*Surface, error) {
	if page < 1 || page > src.PageCount() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, src.PageCount())
	}
	if scale <= 0 || quality <= 0 {
		return nil, fmt.Errorf("scale and quality must be positive, got %.2f x %.2f", scale, quality)
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	myGen := r.gen
	r.mu.Unlock()

	img, err := src.RenderPage(page, baseDPI*scale*quality)

	if ctx.Err() != nil {
		return nil, ErrSuperseded
	}
	if err != nil {
		key := fmt.Sprintf("%s:%d", src.ID(), page)
		r.mu.Lock()
		firstReport := !r.reported[key]
		r.reported[key] = true
		r.mu.Unlock()
		if firstReport {
			r.log.Warn("failed to render page %d of %s: %v", page, src.ID(), err)
		}
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	surface := newSurface(src.ID(), page, scale, quality, img)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != myGen {
		return nil, ErrSuperseded
	}
	r.current = surface
	r.cancel = nil
	cancel()

	r.log.Trace("rendered page %d of %s at %dx%d (display %dx%d)",
		page, src.ID(), surface.BackingWidth(), surface.BackingHeight(),
		surface.DisplayWidth(), surface.DisplayHeight())

	return surface, nil
}

// Current returns the last successfully published surface, if any.
func (r *Rasterizer) Current() *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CancelPending cancels any in-flight render without starting a new one.
func (r *Rasterizer) CancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
