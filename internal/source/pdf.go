package source

import (
	"fmt"
	"path/filepath"
	"strings"

	pageimage "panel-cropper/internal/image"

	"github.com/gen2brain/go-fitz"
)

// DefaultPDFDPI is the render resolution for PDF pages.
const DefaultPDFDPI = 150

// PDFSource renders the pages of a PDF document.
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  float64
}

// NewPDFSource opens a PDF. dpi <= 0 uses DefaultPDFDPI.
func NewPDFSource(path string, dpi float64) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoPages)
	}
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (s *PDFSource) Len() int {
	return s.doc.NumPage()
}

func (s *PDFSource) Name(index int) string {
	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	return fmt.Sprintf("%s p%03d", base, index+1)
}

// Load renders one page. Each call opens its own document handle so pages
// can be rendered concurrently.
func (s *PDFSource) Load(index int) (*pageimage.Page, error) {
	if err := checkIndex(index, s.Len()); err != nil {
		return nil, err
	}
	workerDoc, err := fitz.New(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer workerDoc.Close()

	img, err := workerDoc.ImageDPI(index, s.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	return &pageimage.Page{Name: s.Name(index), Format: "pdf", Image: img}, nil
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
