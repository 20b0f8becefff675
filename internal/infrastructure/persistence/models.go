package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row models for the legacy Kthimi transfer tables. These tables are written
// by the upstream export process; the pipeline only reads them, except for
// the status table which carries the work-queue state.

// InvoiceStatusRow is one unit of work in the shared job table.
// printed: 0=Pending, 1=Printed, 2=Processing. status must equal 1
// (eligible) for the row to be claimable.
type InvoiceStatusRow struct {
	JobID     int64      `gorm:"column:id_fatura;primaryKey"`
	Printed   int16      `gorm:"column:printed"`
	Status    int16      `gorm:"column:status"`
	ClaimedAt *time.Time `gorm:"column:claimed_at"`
}

// TableName returns the table name for GORM
func (InvoiceStatusRow) TableName() string {
	return "kthimi_invoice_status"
}

// FaturaRow is the invoice header transfer row.
type FaturaRow struct {
	JobID        int64     `gorm:"column:id_fatura;primaryKey"`
	SupplierName string    `gorm:"column:emri_furnitorit"`
	Date         time.Time `gorm:"column:data"`
	UnitCode     string    `gorm:"column:njesia"`
	Identify     string    `gorm:"column:identify"`
}

// TableName returns the table name for GORM
func (FaturaRow) TableName() string {
	return "kthimi_fatura_transfers"
}

// DokumentRow is the document metadata transfer row for an invoice.
type DokumentRow struct {
	DocumentID      int64      `gorm:"column:id_dokument;primaryKey"`
	JobID           int64      `gorm:"column:id_fatura;index"`
	DocumentType    string     `gorm:"column:tipi_dokument"`
	SequenceNumber  int64      `gorm:"column:nr_rendor"`
	UnitOrg         string     `gorm:"column:njesia_org"`
	SupplierID      string     `gorm:"column:furnitori_id"`
	SupplierName    string     `gorm:"column:furnitori_emri"`
	SupplierAddress string     `gorm:"column:furnitori_adresa"`
	SupplierCity    string     `gorm:"column:furnitori_qyteti"`
	SupplierZip     string     `gorm:"column:furnitori_zipcode"`
	SupplierState   string     `gorm:"column:furnitori_shteti"`
	SupplierDate    *time.Time `gorm:"column:furnitori_data_a"`
	SupplierContact string     `gorm:"column:furnitori_kontakt"`
	SupplierTaxNo   string     `gorm:"column:furnitori_nui"`
	ContactPerson   string     `gorm:"column:furnitori_emri_kontakt"`
	Receiver        string     `gorm:"column:pranuesi"`
	UnitCode        string     `gorm:"column:njesia"`
	RemarkA         string     `gorm:"column:tekst1"`
	RemarkB         string     `gorm:"column:tekst2"`
	TaxNumber       string     `gorm:"column:nuii"`
}

// TableName returns the table name for GORM
func (DokumentRow) TableName() string {
	return "kthimi_dokument_transfers"
}

// ProduktRow is one invoice line transfer row.
type ProduktRow struct {
	ID              int64           `gorm:"column:id;primaryKey"`
	JobID           int64           `gorm:"column:id_fatura;index"`
	Description     string          `gorm:"column:emertimi_a"`
	UnitOfMeasure   string          `gorm:"column:njesia_m"`
	ItemCode        string          `gorm:"column:shifra_f"`
	Quantity        decimal.Decimal `gorm:"column:sasia;type:decimal(18,4)"`
	UnitPrice       decimal.Decimal `gorm:"column:cmimi_dokument;type:decimal(18,4)"`
	TaxRatePercent  decimal.Decimal `gorm:"column:tax_rate;type:decimal(9,4)"`
	DiscountPercent decimal.Decimal `gorm:"column:zbritje;type:decimal(9,4)"`
}

// TableName returns the table name for GORM
func (ProduktRow) TableName() string {
	return "kthimi_produkt_transfers"
}

// FurnitorContactRow is the recipient routing record for one supplier.
type FurnitorContactRow struct {
	SupplierID string `gorm:"column:furnitori_id;primaryKey"`
	ToEmail    string `gorm:"column:to_email"`
	CcEmail    string `gorm:"column:cc_email"`
	IsActive   bool   `gorm:"column:is_active"`
}

// TableName returns the table name for GORM
func (FurnitorContactRow) TableName() string {
	return "kthimi_furnitor_contacts"
}
