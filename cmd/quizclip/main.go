package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kovancilartr/quizclip/internal/commit"
	"github.com/kovancilartr/quizclip/internal/config"
	"github.com/kovancilartr/quizclip/internal/crop"
	"github.com/kovancilartr/quizclip/internal/queue"
	"github.com/kovancilartr/quizclip/internal/raster"
	"github.com/kovancilartr/quizclip/internal/scanner"
	"github.com/kovancilartr/quizclip/internal/selection"
	"github.com/kovancilartr/quizclip/internal/session"
	"github.com/kovancilartr/quizclip/internal/store"
	"github.com/kovancilartr/quizclip/internal/telemetry"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
	"github.com/kovancilartr/quizclip/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	pdfDir := flag.String("pdf-dir", "", "directory containing source PDF files")
	project := flag.String("project", "", "project id owning the extraction session (overrides config)")
	token := flag.String("token", "", "API token; when set, commits go to the backend instead of local guest storage")
	scale := flag.Float64("scale", 0, "page render scale (overrides config)")
	quality := flag.Float64("quality", 0, "render quality multiplier for crisper crops (overrides config)")
	filter := flag.Bool("filter", true, "apply the contrast cleanup filter to extracted crops")
	magic := flag.Bool("magic", true, "use magic scan to detect question regions; otherwise quick-select per page")
	commitAtEnd := flag.Bool("commit", true, "commit the pending queue at the end of the run")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(logger.WithPrefix("[quizclip] "))
	log.SetVerbose(*verbose)
	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal("Error loading config: %v", err)
		}
		cfg = config.Default()
	}

	if *project != "" {
		cfg.ProjectID = *project
	}
	if *scale > 0 {
		cfg.Render.Scale = *scale
	}
	if *quality > 0 {
		cfg.Render.Quality = *quality
	}

	if *pdfDir == "" {
		log.Fatal("No PDF directory given; use -pdf-dir")
	}
	if _, err := os.Stat(*pdfDir); os.IsNotExist(err) {
		log.Fatal("PDF directory does not exist: %s", *pdfDir)
	}

	db, err := store.Open(cfg.StorePath())
	if err != nil {
		log.Fatal("Error opening local store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	startTime := time.Now()

	sess := session.New(cfg.ProjectID, store.NewDocumentStore(db), log)
	defer sess.Close()

	if restored, err := sess.Restore(); err != nil {
		log.Warn("Error restoring previous documents: %v", err)
	} else if len(restored) > 0 {
		log.Info("Restored %d documents from the previous session", len(restored))
	}

	q, err := queue.New(cfg.ProjectID, store.NewQueueStore(db), log)
	if err != nil {
		log.Fatal("Error opening pending queue: %v", err)
	}
	if q.Len() > 0 {
		log.Info("Restored %d pending questions", q.Len())
	}

	dirScanner := scanner.New(log)
	log.Info("Scanning directory: %s", *pdfDir)
	pdfs, err := dirScanner.FindPDFs(ctx, *pdfDir)
	if err != nil {
		log.Fatal("Error finding PDFs: %v", err)
	}
	log.Info("Found %d PDFs to process", len(pdfs))

	for _, pdf := range pdfs {
		data, err := os.ReadFile(pdf.AbsolutePath)
		if err != nil {
			log.Warn("Error reading %s: %v", pdf.RelativePath, err)
			continue
		}
		if _, err := sess.Load(pdf.RelativePath, data); err != nil {
			log.Warn("Error loading %s: %v", pdf.RelativePath, err)
		}
	}

	rasterizer := raster.NewRasterizer(log)
	selector := selection.NewSelector()
	scan := selection.NewMagicScan(log)
	processor := crop.NewProcessor(log)
	emitter := telemetry.NewEmitter(cfg.TelemetryURL, log)

	scan.SetActive(*magic)

	var pagesRendered, cropsAccepted int

	for _, doc := range sess.Documents() {
		log.Info("Processing %s (%d pages)", doc.Name(), doc.PageCount())

		for page := 1; page <= doc.PageCount(); page++ {
			surface, err := rasterizer.Render(ctx, doc, page, cfg.Render.Scale, cfg.Render.Quality)
			if errors.Is(err, raster.ErrSuperseded) {
				continue
			}
			if err != nil {
				log.Warn("Error rendering %s page %d: %v", doc.Name(), page, err)
				continue
			}
			pagesRendered++
			scan.SurfaceChanged(surface.Page, surface.Scale)

			var regions []models.Rect
			if *magic {
				bounds := models.Rect{Width: surface.DisplayWidth(), Height: surface.DisplayHeight()}
				regions = scan.Detect(surface, bounds)
				if len(regions) == 0 {
					log.Debug("No questions detected on %s page %d", doc.Name(), page)
					continue
				}
			} else {
				regions = []models.Rect{selector.QuickSelect(surface)}
			}

			for _, displayRect := range regions {
				sourceRect := raster.ToBacking(displayRect, surface)

				preview, err := processor.Extract(surface, sourceRect, *filter)
				if err != nil {
					log.Warn("Error extracting crop on %s page %d: %v", doc.Name(), page, err)
					continue
				}

				item := models.PendingQuestion{
					ID:           uuid.NewString(),
					DocumentID:   doc.ID(),
					DocumentName: doc.Name(),
					Preview:      preview,
					SourceRect:   sourceRect,
					PageNumber:   page,
				}
				if err := q.Append(item); err != nil {
					log.Warn("Error queueing crop: %v", err)
					continue
				}

				cropsAccepted++
				selector.Clear()
				emitter.Report(sourceRect, surface.BackingWidth(), surface.BackingHeight(), time.Now())
			}
		}
	}

	var committed int
	if *commitAtEnd && q.Len() > 0 {
		mode := commit.ModeGuest
		if *token != "" {
			mode = commit.ModeAuthenticated
		}

		service, err := commit.NewService(commit.ServiceConfig{
			ProjectID:  cfg.ProjectID,
			Mode:       mode,
			GuestStore: store.NewGuestStore(db),
			BaseURL:    cfg.APIBaseURL,
			AuthToken:  *token,
			Log:        log,
		})
		if err != nil {
			log.Fatal("Error configuring commit: %v", err)
		}

		records, err := service.Commit(ctx, q)
		if err != nil {
			log.Fatal("Commit failed, queue preserved for retry: %v", err)
		}
		committed = len(records)
	}

	emitter.Wait()

	log.Info("Processing complete:")
	log.Info("- Documents in session: %d", len(sess.Documents()))
	log.Info("- Pages rendered: %d", pagesRendered)
	log.Info("- Crops accepted: %d", cropsAccepted)
	log.Info("- Questions committed: %d", committed)
	log.Info("- Elapsed: %s", time.Since(startTime).Round(time.Millisecond))
}
