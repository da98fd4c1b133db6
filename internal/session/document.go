package session

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageRenderer is the parsed-document handle a SourceDocument renders
// through. *fitz.Document satisfies it; tests substitute fakes.
type PageRenderer interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Parser turns raw PDF bytes into a parsed document handle.
type Parser func(data []byte) (PageRenderer, error)

// DefaultParser validates the bytes with pdfcpu (relaxed mode) and parses
// them with MuPDF for rendering.
func DefaultParser(data []byte) (PageRenderer, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF structure: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to determine page count: %w", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return doc, nil
}

// SourceDocument is one loaded source file. It implements raster.Source.
// Owned exclusively by the session that created it.
type SourceDocument struct {
	id        string
	name      string
	size      int64
	pageCount int

	mu  sync.Mutex
	doc PageRenderer
}

func (d *SourceDocument) ID() string     { return d.id }
func (d *SourceDocument) Name() string   { return d.name }
func (d *SourceDocument) Size() int64    { return d.size }
func (d *SourceDocument) PageCount() int { return d.pageCount }

// RenderPage renders the 1-indexed page at the given DPI. Renders are
// serialized: the underlying MuPDF handle is not safe for concurrent use.
func (d *SourceDocument) RenderPage(page int, dpi float64) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return nil, fmt.Errorf("document %s is closed", d.name)
	}

	// MuPDF pages are zero-indexed.
	return d.doc.ImageDPI(page-1, dpi)
}

func (d *SourceDocument) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}
