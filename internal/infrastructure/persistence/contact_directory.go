package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"gorm.io/gorm"
)

// GormContactDirectory resolves supplier delivery addresses from the
// contact table. Records flagged inactive are ignored.
type GormContactDirectory struct {
	db *gorm.DB
}

// NewGormContactDirectory creates a new GormContactDirectory
func NewGormContactDirectory(db *gorm.DB) *GormContactDirectory {
	return &GormContactDirectory{db: db}
}

// ContactsFor returns the parsed To/Cc lists for a supplier. An unknown or
// inactive supplier yields empty lists so the caller can fall back to the
// configured default recipients.
func (d *GormContactDirectory) ContactsFor(ctx context.Context, supplierID string) (invoice.SupplierContacts, error) {
	if supplierID == "" {
		return invoice.SupplierContacts{}, nil
	}

	var row FurnitorContactRow
	if err := d.db.WithContext(ctx).
		First(&row, "furnitori_id = ? AND is_active = ?", supplierID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoice.SupplierContacts{}, nil
		}
		return invoice.SupplierContacts{}, fmt.Errorf("contacts lookup for supplier %s: %w", supplierID, err)
	}

	return invoice.SupplierContacts{
		To: invoice.ParseEmailList(row.ToEmail),
		Cc: invoice.ParseEmailList(row.CcEmail),
	}, nil
}

// Ensure GormContactDirectory implements invoice.ContactDirectory
var _ invoice.ContactDirectory = (*GormContactDirectory)(nil)
