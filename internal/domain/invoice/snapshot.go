package invoice

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is fixed for all return invoices.
const Currency = "EUR"

// placeholderValues are textual markers upstream systems use for "no value".
var placeholderValues = map[string]struct{}{
	"":     {},
	"none": {},
	"n/a":  {},
	"null": {},
}

// NormalizeText trims the value and maps placeholder markers
// ("none", "n/a", "null", case-insensitive) to the empty string.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := placeholderValues[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

// Supplier is the counterparty identity and contact block of an invoice.
type Supplier struct {
	ID            string
	Name          string
	Address       string
	City          string
	ZipCode       string
	State         string
	Contact       string
	ContactPerson string
	TaxNumber     string
}

// LineItem is one product row of an invoice with its derived amounts.
type LineItem struct {
	Description     string
	UnitOfMeasure   string
	ItemCode        string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRatePercent  decimal.Decimal
	Amounts         LineAmounts
}

// Snapshot is the immutable assembled view of one invoice: header, supplier
// block and ordered line items with all derived monetary values computed.
// Nothing downstream of the assembler mutates it.
type Snapshot struct {
	JobID          int64
	InvoiceNumber  int64
	DocumentType   string
	SequenceNumber int64
	UnitCode       string
	IssueDate      time.Time
	Supplier       Supplier
	Receiver       string
	RemarkA        string
	RemarkB        string
	Currency       string
	Items          []LineItem
	Totals         Totals
}

// IssueDateString renders the issue date the way templates and filenames
// expect it.
func (s *Snapshot) IssueDateString() string {
	return s.IssueDate.Format("2006-01-02")
}

// BaseName is the deterministic artifact base name <unit>_<invoice>_<date>,
// before filename sanitization.
func (s *Snapshot) BaseName() string {
	return s.UnitCode + "_" + s.InvoiceNumberString() + "_" + s.IssueDateString()
}

// InvoiceNumberString returns the invoice number as displayed on documents.
func (s *Snapshot) InvoiceNumberString() string {
	return strconv.FormatInt(s.InvoiceNumber, 10)
}
