package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// TemplateEngine renders the invoice document HTML from a snapshot.
// It uses Go's html/template package with custom formatting functions.
type TemplateEngine struct {
	tmpl *template.Template
}

// funcMap holds the formatting helpers available to invoice templates.
var funcMap = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"q2":   func(d decimal.Decimal) string { return d.StringFixed(2) },
	"q4":   func(d decimal.Decimal) string { return d.StringFixed(4) },
}

// NewTemplateEngine loads the invoice template from path, falling back to
// the built-in template when the file does not exist.
func NewTemplateEngine(path string) (*TemplateEngine, error) {
	source := defaultInvoiceTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			source = string(data)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read invoice template: %w", err)
		}
	}

	tmpl, err := template.New("invoice").Funcs(funcMap).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// TemplateData is the fixed data contract handed to the rendering layer:
// the full snapshot plus the artifact image referenced as a local-file URI.
type TemplateData struct {
	Snapshot    *invoice.Snapshot
	QRImageURI  template.URL
	GeneratedAt time.Time
}

// Render produces the populated document HTML for a snapshot.
func (e *TemplateEngine) Render(snap *invoice.Snapshot, qrImagePath string) (string, error) {
	abs, err := filepath.Abs(qrImagePath)
	if err != nil {
		return "", fmt.Errorf("resolve artifact image path: %w", err)
	}

	data := TemplateData{
		Snapshot:    snap,
		QRImageURI:  template.URL("file://" + filepath.ToSlash(abs)),
		GeneratedAt: time.Now(),
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return buf.String(), nil
}
