package render

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive packages the rendered document and the artifact image into
// <outputDir>/zipped/<base>.zip, where base matches the artifact base name.
func Archive(outputDir, baseName, pdfPath, qrPath string) (string, error) {
	zipDir := filepath.Join(outputDir, "zipped")
	if err := os.MkdirAll(zipDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	zipPath := filepath.Join(zipDir, baseName+".zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, src := range []string{pdfPath, qrPath} {
		if err := addFile(w, src); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return zipPath, nil
}

func addFile(w *zip.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s for archive: %w", src, err)
	}
	defer f.Close()

	entry, err := w.Create(filepath.Base(src))
	if err != nil {
		return fmt.Errorf("create archive entry for %s: %w", src, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("write archive entry for %s: %w", src, err)
	}
	return nil
}
