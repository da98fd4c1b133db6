package raster_test

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/pkg/logger"
)

// fakeSource renders blank pages of a fixed point size. Pages listed in
// failPages fail to decode; a non-nil block channel stalls renders of
// blockPage until the channel is closed.
type fakeSource struct {
	id        string
	pages     int
	ptWidth   float64
	ptHeight  float64
	failPages map[int]bool
	block     chan struct{}
	blockPage int
	started   chan struct{}

	mu      sync.Mutex
	renders int
}

func (f *fakeSource) ID() string     { return f.id }
func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	if f.block != nil && page == f.blockPage {
		if f.started != nil {
			close(f.started)
		}
		<-f.block
	}
	f.mu.Lock()
	f.renders++
	f.mu.Unlock()

	if f.failPages[page] {
		return nil, errors.New("cannot decode page stream")
	}

	w := int(math.Round(f.ptWidth * dpi / 72.0))
	h := int(math.Round(f.ptHeight * dpi / 72.0))
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func rasterTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[raster-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	log.SetLevel(logger.LevelTrace)
	return log
}

var _ = Describe("Rasterizer", func() {
	var (
		r   *raster.Rasterizer
		src *fakeSource
		ctx context.Context
	)

	BeforeEach(func() {
		r = raster.NewRasterizer(rasterTestLogger())
		src = &fakeSource{id: "doc-1", pages: 3, ptWidth: 400, ptHeight: 600}
		ctx = context.Background()
	})

	It("renders a page with oversampled backing pixels and stable display size", func() {
		surface, err := r.Render(ctx, src, 1, 1.5, 2.0)
		Expect(err).NotTo(HaveOccurred())

		// 400pt x 1.5 scale x 2.0 quality = 1200 backing pixels wide.
		Expect(surface.BackingWidth()).To(Equal(1200))
		Expect(surface.BackingHeight()).To(Equal(1800))

		// Display size is backing divided by quality.
		Expect(surface.DisplayWidth()).To(Equal(600))
		Expect(surface.DisplayHeight()).To(Equal(900))

		Expect(r.Current()).To(Equal(surface))
	})

	It("rejects out-of-range pages", func() {
		_, err := r.Render(ctx, src, 0, 1.0, 1.0)
		Expect(err).To(HaveOccurred())

		_, err = r.Render(ctx, src, 4, 1.0, 1.0)
		Expect(err).To(MatchError(ContainSubstring("out of range")))
	})

	It("rejects non-positive scale and quality", func() {
		_, err := r.Render(ctx, src, 1, 0, 1.0)
		Expect(err).To(HaveOccurred())

		_, err = r.Render(ctx, src, 1, 1.0, -1)
		Expect(err).To(HaveOccurred())
	})

	It("keeps the previous surface when a page fails to decode", func() {
		surface, err := r.Render(ctx, src, 1, 1.0, 1.0)
		Expect(err).NotTo(HaveOccurred())

		src.failPages = map[int]bool{2: true}
		_, err = r.Render(ctx, src, 2, 1.0, 1.0)
		Expect(err).To(MatchError(ContainSubstring("page 2")))

		Expect(r.Current()).To(Equal(surface))
	})

	It("supersedes an in-flight render instead of queueing", func() {
		src.block = make(chan struct{})
		src.blockPage = 1
		src.started = make(chan struct{})

		results := make(chan error, 1)
		go func() {
			_, err := r.Render(ctx, src, 1, 1.0, 1.0)
			results <- err
		}()

		// Wait until the first render is actually stalled inside the source.
		Eventually(src.started).Should(BeClosed())

		surface, err := r.Render(ctx, src, 2, 1.0, 1.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(surface.Page).To(Equal(2))

		close(src.block)
		Expect(<-results).To(MatchError(raster.ErrSuperseded))

		// The stale render never overwrites the newer result.
		Expect(r.Current().Page).To(Equal(2))
	})

	It("treats caller cancellation as a superseded render", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Render(cancelled, src, 1, 1.0, 1.0)
		Expect(err).To(MatchError(raster.ErrSuperseded))
		Expect(r.Current()).To(BeNil())
	})
})
