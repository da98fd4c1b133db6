package acceptance_test

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kovancilartr/quizclip/internal/commit"
	"github.com/kovancilartr/quizclip/internal/crop"
	"github.com/kovancilartr/quizclip/internal/queue"
	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/internal/selection"
	"github.com/kovancilartr/quizclip/internal/session"
	"github.com/kovancilartr/quizclip/internal/store"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
	"github.com/kovancilartr/quizclip/pkg/utils"
)

func acceptanceLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[acceptance] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	log.SetLevel(logger.LevelTrace)
	return log
}

// examRenderer renders synthetic exam pages: a white page with one black
// question band per page, at whatever DPI the rasterizer asks for.
type examRenderer struct {
	pages int
}

func (r *examRenderer) NumPage() int { return r.pages }

func (r *examRenderer) ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error) {
	f := dpi / 72.0
	w := int(math.Round(400 * f))
	h := int(math.Round(600 * f))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	// One question band per page at 100..160pt.
	y0 := int(math.Round(100 * f))
	y1 := int(math.Round(160 * f))
	for y := y0; y < y1; y++ {
		for x := int(math.Round(40 * f)); x < int(math.Round(360*f)); x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	return img, nil
}

func (r *examRenderer) Close() error { return nil }

func examParser(data []byte) (session.PageRenderer, error) {
	return &examRenderer{pages: 3}, nil
}

func pdfBytes(tag string) []byte {
	return append([]byte("%PDF-1.7\n"), []byte(tag)...)
}

var _ = Describe("Extraction Pipeline End-to-End", Ordered, func() {
	var (
		db  *sql.DB
		dir string
		log *logger.Logger
		ctx context.Context
	)

	BeforeAll(func() {
		var err error
		dir, err = os.MkdirTemp("", "quizclip-acceptance-*")
		Expect(err).NotTo(HaveOccurred())

		db, err = store.Open(filepath.Join(dir, "acceptance.db"))
		Expect(err).NotTo(HaveOccurred())

		log = acceptanceLogger()
		ctx = context.Background()
	})

	AfterAll(func() {
		db.Close()
		os.RemoveAll(dir)
	})

	It("extracts a selected region of page 2 into the pending queue", func() {
		sess := session.New("exam-project", store.NewDocumentStore(db), log, session.WithParser(examParser))
		defer sess.Close()

		doc, err := sess.Load("midterm.pdf", pdfBytes("midterm"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.PageCount()).To(Equal(3))

		rasterizer := raster.NewRasterizer(log)
		surface, err := rasterizer.Render(ctx, doc, 2, 1.0, 2.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(surface.DisplayWidth()).To(Equal(400))
		Expect(surface.BackingWidth()).To(Equal(800))

		// Operator draws a selection around the question band.
		selector := selection.NewSelector()
		selector.Start()
		selector.Update(models.Rect{X: 30, Y: 90, Width: 340, Height: 80})
		displayRect, ok := selector.Rect()
		Expect(ok).To(BeTrue())

		sourceRect := raster.ToBacking(displayRect, surface)
		Expect(sourceRect).To(Equal(models.Rect{X: 60, Y: 180, Width: 680, Height: 160}))

		processor := crop.NewProcessor(log)
		preview, err := processor.Extract(surface, sourceRect, false)
		Expect(err).NotTo(HaveOccurred())

		// The crop is pixel-identical to the backing region it names.
		cropped, err := png.Decode(bytes.NewReader(preview))
		Expect(err).NotTo(HaveOccurred())
		expected := surface.Img.SubImage(image.Rect(
			sourceRect.X, sourceRect.Y,
			sourceRect.X+sourceRect.Width, sourceRect.Y+sourceRect.Height,
		))
		Expect(utils.ImageContentHash(cropped)).To(Equal(utils.ImageContentHash(expected)))

		q, err := queue.New("exam-project", store.NewQueueStore(db), log)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Append(models.PendingQuestion{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID(),
			DocumentName: doc.Name(),
			Preview:      preview,
			SourceRect:   sourceRect,
			PageNumber:   2,
		})).To(Succeed())
		selector.Clear()

		Expect(q.Len()).To(Equal(1))
		Expect(q.Items()[0].PageNumber).To(Equal(2))
	})

	It("detects the question band with magic scan", func() {
		sess := session.New("exam-project", store.NewDocumentStore(db), log, session.WithParser(examParser))
		defer sess.Close()

		restored, err := sess.Restore()
		Expect(err).NotTo(HaveOccurred())
		Expect(restored).To(HaveLen(1))
		Expect(sess.Active().Name()).To(Equal("midterm.pdf"))

		rasterizer := raster.NewRasterizer(log)
		surface, err := rasterizer.Render(ctx, sess.Active(), 1, 1.0, 2.0)
		Expect(err).NotTo(HaveOccurred())

		scan := selection.NewMagicScan(log)
		scan.SetActive(true)
		candidates := scan.Detect(surface, models.Rect{Width: 400, Height: 600})
		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].Y).To(BeNumerically("~", 100, 2))
		Expect(candidates[0].Height).To(BeNumerically("~", 60, 2))
	})

	It("survives a reload inside the freshness window and commits as guest", func() {
		q, err := queue.New("exam-project", store.NewQueueStore(db), log)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Len()).To(Equal(1)) // restored from the first scenario

		service, err := commit.NewService(commit.ServiceConfig{
			ProjectID:  "exam-project",
			Mode:       commit.ModeGuest,
			GuestStore: store.NewGuestStore(db),
			Log:        log,
		})
		Expect(err).NotTo(HaveOccurred())

		records, err := service.Commit(ctx, q)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(q.Len()).To(Equal(0))

		stored, err := store.NewGuestStore(db).List("exam-project")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(1))
		Expect(stored[0].ImageURI).To(HavePrefix("data:image/png;base64,"))

		// Nothing left to restore after the commit cleared the snapshot.
		reloaded, err := queue.New("exam-project", store.NewQueueStore(db), log)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Len()).To(Equal(0))
	})

	It("drops a stale queue on reload", func() {
		queueStore := store.NewQueueStore(db)
		Expect(queueStore.Save("stale-project", []models.PendingQuestion{
			{
				ID:         uuid.NewString(),
				Preview:    []byte("old"),
				PageNumber: 1,
			},
		}, time.Now().Add(-queue.FreshnessWindow-10*time.Minute))).To(Succeed())

		q, err := queue.New("stale-project", queueStore, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Len()).To(Equal(0))
	})
})
