package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"gorm.io/gorm"
)

// GormInvoiceReader assembles an immutable invoice snapshot from the
// header, document and line transfer rows of a claimed job.
type GormInvoiceReader struct {
	db *gorm.DB
}

// NewGormInvoiceReader creates a new GormInvoiceReader
func NewGormInvoiceReader(db *gorm.DB) *GormInvoiceReader {
	return &GormInvoiceReader{db: db}
}

// Assemble loads the rows for jobID, applies the money model per line and
// builds the snapshot. A missing header row yields invoice.ErrHeaderNotFound.
func (r *GormInvoiceReader) Assemble(ctx context.Context, jobID int64) (*invoice.Snapshot, error) {
	var fatura FaturaRow
	if err := r.db.WithContext(ctx).First(&fatura, "id_fatura = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrHeaderNotFound
		}
		return nil, fmt.Errorf("load invoice header %d: %w", jobID, err)
	}

	var dok DokumentRow
	hasDok := true
	if err := r.db.WithContext(ctx).
		Order("id_dokument").
		First(&dok, "id_fatura = ?", jobID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load document row %d: %w", jobID, err)
		}
		hasDok = false
	}

	var rows []ProduktRow
	if err := r.db.WithContext(ctx).
		Order("id").
		Find(&rows, "id_fatura = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("load line rows %d: %w", jobID, err)
	}

	items := make([]invoice.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, invoice.LineItem{
			Description:     invoice.NormalizeText(row.Description),
			UnitOfMeasure:   invoice.NormalizeText(row.UnitOfMeasure),
			ItemCode:        invoice.NormalizeText(row.ItemCode),
			Quantity:        row.Quantity,
			UnitPrice:       row.UnitPrice,
			DiscountPercent: row.DiscountPercent,
			TaxRatePercent:  row.TaxRatePercent,
			Amounts:         invoice.ComputeLine(row.Quantity, row.UnitPrice, row.DiscountPercent, row.TaxRatePercent),
		})
	}

	snap := &invoice.Snapshot{
		JobID:         jobID,
		InvoiceNumber: fatura.JobID,
		UnitCode:      invoice.NormalizeText(fatura.UnitCode),
		IssueDate:     fatura.Date,
		Currency:      invoice.Currency,
		Supplier: invoice.Supplier{
			Name: invoice.NormalizeText(fatura.SupplierName),
		},
		Items:  items,
		Totals: invoice.Aggregate(items),
	}

	if hasDok {
		// Document metadata wins over the bare header where both exist.
		snap.DocumentType = invoice.NormalizeText(dok.DocumentType)
		snap.SequenceNumber = dok.SequenceNumber
		snap.Receiver = invoice.NormalizeText(dok.Receiver)
		snap.RemarkA = invoice.NormalizeText(dok.RemarkA)
		snap.RemarkB = invoice.NormalizeText(dok.RemarkB)
		if unit := invoice.NormalizeText(dok.UnitCode); unit != "" {
			snap.UnitCode = unit
		}
		if dok.SupplierDate != nil && !dok.SupplierDate.IsZero() {
			snap.IssueDate = *dok.SupplierDate
		}
		snap.Supplier = invoice.Supplier{
			ID:            invoice.NormalizeText(dok.SupplierID),
			Name:          invoice.NormalizeText(dok.SupplierName),
			Address:       invoice.NormalizeText(dok.SupplierAddress),
			City:          invoice.NormalizeText(dok.SupplierCity),
			ZipCode:       invoice.NormalizeText(dok.SupplierZip),
			State:         invoice.NormalizeText(dok.SupplierState),
			Contact:       invoice.NormalizeText(dok.SupplierContact),
			ContactPerson: invoice.NormalizeText(dok.ContactPerson),
			TaxNumber:     invoice.NormalizeText(dok.SupplierTaxNo),
		}
		if snap.Supplier.Name == "" {
			snap.Supplier.Name = invoice.NormalizeText(fatura.SupplierName)
		}
	}

	if snap.IssueDate.IsZero() {
		snap.IssueDate = time.Now()
	}

	return snap, nil
}

// Ensure GormInvoiceReader implements invoice.InvoiceReader
var _ invoice.InvoiceReader = (*GormInvoiceReader)(nil)
