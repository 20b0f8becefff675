package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeLine(t *testing.T) {
	t.Run("discount and tax applied in order", func(t *testing.T) {
		// qty=3, price=10.00, discount=10%, tax=20%
		amounts := ComputeLine(d("3"), d("10.00"), d("10"), d("20"))

		assert.True(t, amounts.DiscountAmount.Equal(d("1.0000")), "discount: %s", amounts.DiscountAmount)
		assert.True(t, amounts.NetUnitPrice.Equal(d("9.0000")), "net unit: %s", amounts.NetUnitPrice)
		assert.True(t, amounts.LineNet.Equal(d("27.0000")), "line net: %s", amounts.LineNet)
		assert.True(t, amounts.TaxAmount.Equal(d("5.4000")), "tax: %s", amounts.TaxAmount)
		assert.True(t, amounts.LineGross.Equal(d("32.4000")), "gross: %s", amounts.LineGross)
	})

	t.Run("rounds half up at four digits", func(t *testing.T) {
		// 1 * 0.33335 with no discount/tax rounds the half digit up
		amounts := ComputeLine(d("1"), d("0.33335"), d("0"), d("0"))
		assert.Equal(t, "0.3334", amounts.LineNet.StringFixed(4))
	})

	t.Run("zero discount leaves unit price intact", func(t *testing.T) {
		amounts := ComputeLine(d("2"), d("5.5"), d("0"), d("18"))
		assert.True(t, amounts.NetUnitPrice.Equal(d("5.5")))
		assert.True(t, amounts.LineNet.Equal(d("11")))
	})

	t.Run("full discount yields zero line", func(t *testing.T) {
		amounts := ComputeLine(d("4"), d("3.25"), d("100"), d("20"))
		assert.True(t, amounts.LineNet.IsZero())
		assert.True(t, amounts.TaxAmount.IsZero())
		assert.True(t, amounts.LineGross.IsZero())
	})
}

func TestAggregate(t *testing.T) {
	makeItem := func(qty, price, disc, tax string) LineItem {
		q, p, dc, tx := d(qty), d(price), d(disc), d(tax)
		return LineItem{
			Quantity:        q,
			UnitPrice:       p,
			DiscountPercent: dc,
			TaxRatePercent:  tx,
			Amounts:         ComputeLine(q, p, dc, tx),
		}
	}

	t.Run("sums already-rounded per-line values", func(t *testing.T) {
		items := []LineItem{
			makeItem("3", "10.00", "10", "20"),
			makeItem("1.5", "7.333", "0", "18"),
			makeItem("10", "0.0999", "5", "8"),
		}

		totals := Aggregate(items)

		wantSubtotal := items[0].Amounts.LineNet.
			Add(items[1].Amounts.LineNet).
			Add(items[2].Amounts.LineNet)
		wantTax := items[0].Amounts.TaxAmount.
			Add(items[1].Amounts.TaxAmount).
			Add(items[2].Amounts.TaxAmount)

		assert.True(t, totals.Subtotal.Equal(Round4(wantSubtotal)))
		assert.True(t, totals.TotalTax.Equal(Round4(wantTax)))
	})

	t.Run("grand total equals subtotal plus tax", func(t *testing.T) {
		cases := [][]LineItem{
			{makeItem("1", "0.01", "0", "20")},
			{makeItem("3", "10.00", "10", "20"), makeItem("7", "99.999", "2.5", "8")},
			{makeItem("0.33", "3.3333", "33.33", "18"), makeItem("100", "0.0001", "0", "0")},
		}
		for _, items := range cases {
			totals := Aggregate(items)
			assert.True(t, totals.GrandTotal.Equal(totals.Subtotal.Add(totals.TotalTax)),
				"grand=%s subtotal=%s tax=%s", totals.GrandTotal, totals.Subtotal, totals.TotalTax)
		}
	})

	t.Run("quantity total rounds to two digits", func(t *testing.T) {
		items := []LineItem{
			makeItem("1.005", "1", "0", "0"),
			makeItem("2.004", "1", "0", "0"),
		}
		totals := Aggregate(items)
		// per-row rounding first: 1.01 + 2.00
		assert.Equal(t, "3.01", totals.TotalQuantity.StringFixed(2))
	})

	t.Run("empty sequence yields zero totals", func(t *testing.T) {
		totals := Aggregate(nil)
		require.True(t, totals.Subtotal.IsZero())
		require.True(t, totals.GrandTotal.IsZero())
	})
}
