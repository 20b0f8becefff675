package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"github.com/kthimi/invoicer/internal/infrastructure/artifact"
)

// PDFRenderer converts populated HTML into a PDF file.
type PDFRenderer interface {
	Render(ctx context.Context, html, outputPath string) error
}

// Document is the rendered output for one invoice.
type Document struct {
	PDFPath string
	ZipPath string
}

// DocumentService renders the invoice PDF and its packaged archive from a
// snapshot and the artifact image.
type DocumentService struct {
	engine    *TemplateEngine
	renderer  PDFRenderer
	outputDir string
}

// NewDocumentService creates a new DocumentService writing under outputDir.
func NewDocumentService(engine *TemplateEngine, renderer PDFRenderer, outputDir string) *DocumentService {
	return &DocumentService{
		engine:    engine,
		renderer:  renderer,
		outputDir: outputDir,
	}
}

// Render produces <outputDir>/<base>.pdf and <outputDir>/zipped/<base>.zip,
// both named from the sanitized artifact base name.
func (s *DocumentService) Render(ctx context.Context, snap *invoice.Snapshot, qrImagePath string) (*Document, error) {
	html, err := s.engine.Render(snap, qrImagePath)
	if err != nil {
		return nil, err
	}

	baseName := artifact.SanitizeComponent(snap.BaseName())
	pdfPath := filepath.Join(s.outputDir, baseName+".pdf")

	if err := s.renderer.Render(ctx, html, pdfPath); err != nil {
		return nil, fmt.Errorf("render invoice %d: %w", snap.JobID, err)
	}

	zipPath, err := Archive(s.outputDir, baseName, pdfPath, qrImagePath)
	if err != nil {
		return nil, fmt.Errorf("archive invoice %d: %w", snap.JobID, err)
	}

	return &Document{PDFPath: pdfPath, ZipPath: zipPath}, nil
}
