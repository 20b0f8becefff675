package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// WkhtmltopdfRenderer converts invoice HTML to PDF using the wkhtmltopdf
// command-line tool. The rendering service is treated as an external
// collaborator; any failure here is fatal for the job.
type WkhtmltopdfRenderer struct {
	binaryPath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewWkhtmltopdfRenderer creates a renderer, resolving the binary path.
func NewWkhtmltopdfRenderer(binaryPath string, timeout time.Duration, logger *zap.Logger) (*WkhtmltopdfRenderer, error) {
	if binaryPath == "" {
		binaryPath = "wkhtmltopdf"
	}
	if timeout == 0 {
		timeout = defaultRenderTimeout
	}

	resolved, err := resolveBinaryPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("wkhtmltopdf binary not found at %q: %w", binaryPath, err)
	}

	return &WkhtmltopdfRenderer{
		binaryPath: resolved,
		timeout:    timeout,
		logger:     logger.Named("render"),
	}, nil
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Render writes the populated HTML to a temp file and converts it to a PDF
// at outputPath. Local file access is enabled so the QR image file URI
// resolves; text is UTF-8.
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, html, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	htmlFile, err := os.CreateTemp("", "invoice-*.html")
	if err != nil {
		return fmt.Errorf("create temp HTML file: %w", err)
	}
	htmlPath := htmlFile.Name()
	defer os.Remove(htmlPath)

	if _, err := htmlFile.WriteString(html); err != nil {
		htmlFile.Close()
		return fmt.Errorf("write temp HTML file: %w", err)
	}
	htmlFile.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	args := buildArgs(htmlPath, outputPath)
	cmd := exec.CommandContext(ctx, r.binaryPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("PDF rendering timed out after %v", r.timeout)
		}
		r.logger.Error("wkhtmltopdf failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
		)
		return fmt.Errorf("wkhtmltopdf execution failed: %s: %w", stderr.String(), err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("read generated PDF: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("generated PDF is empty")
	}

	r.logger.Info("PDF rendered",
		zap.String("path", outputPath),
		zap.Int64("bytes", info.Size()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// buildArgs constructs the command-line arguments for wkhtmltopdf
func buildArgs(htmlPath, pdfPath string) []string {
	return []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		htmlPath,
		pdfPath,
	}
}
