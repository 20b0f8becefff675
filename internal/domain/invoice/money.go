package invoice

import (
	"github.com/shopspring/decimal"
)

// Monetary values are carried at full precision and rounded half-up only at
// presentation boundaries: 2 fractional digits for quantities and percentages,
// 4 for money subtotals.
const (
	QuantityPrecision = 2
	MoneyPrecision    = 4
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to 2 fractional digits (quantities, percentages).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPrecision)
}

// Round4 rounds half-up to 4 fractional digits (money subtotals).
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// LineAmounts holds the derived monetary values for a single line item,
// already rounded at the fixed presentation precisions.
type LineAmounts struct {
	DiscountAmount decimal.Decimal
	NetUnitPrice   decimal.Decimal
	LineNet        decimal.Decimal
	TaxAmount      decimal.Decimal
	LineGross      decimal.Decimal
}

// ComputeLine derives the per-line amounts from raw quantity, unit price,
// discount percentage and tax rate. Intermediate math runs at full decimal
// precision; each output is rounded half-up to 4 digits.
func ComputeLine(quantity, unitPrice, discountPercent, taxRatePercent decimal.Decimal) LineAmounts {
	discountAmount := unitPrice.Mul(discountPercent.Div(hundred))
	netUnitPrice := unitPrice.Sub(discountAmount)
	lineNet := quantity.Mul(netUnitPrice)
	taxAmount := lineNet.Mul(taxRatePercent.Div(hundred))
	lineGross := lineNet.Add(taxAmount)

	return LineAmounts{
		DiscountAmount: Round4(discountAmount),
		NetUnitPrice:   Round4(netUnitPrice),
		LineNet:        Round4(lineNet),
		TaxAmount:      Round4(taxAmount),
		LineGross:      Round4(lineGross),
	}
}

// Totals holds the invoice-level sums over already-rounded per-line values.
type Totals struct {
	TotalQuantity decimal.Decimal
	Subtotal      decimal.Decimal
	TotalTax      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// Aggregate sums the rounded per-line outputs so that the printed totals
// always equal the sum of the printed rows. GrandTotal is defined as
// Subtotal + TotalTax, never recomputed from raw inputs.
func Aggregate(items []LineItem) Totals {
	totalQty := decimal.Zero
	subtotal := decimal.Zero
	totalTax := decimal.Zero

	for _, it := range items {
		totalQty = totalQty.Add(Round2(it.Quantity))
		subtotal = subtotal.Add(it.Amounts.LineNet)
		totalTax = totalTax.Add(it.Amounts.TaxAmount)
	}

	return Totals{
		TotalQuantity: Round2(totalQty),
		Subtotal:      Round4(subtotal),
		TotalTax:      Round4(totalTax),
		GrandTotal:    Round4(subtotal.Add(totalTax)),
	}
}
