package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot() *invoice.Snapshot {
	item := invoice.LineItem{
		Quantity:        decimal.NewFromInt(3),
		UnitPrice:       decimal.RequireFromString("10.00"),
		DiscountPercent: decimal.NewFromInt(10),
		TaxRatePercent:  decimal.NewFromInt(20),
	}
	item.Amounts = invoice.ComputeLine(item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxRatePercent)
	items := []invoice.LineItem{item}

	return &invoice.Snapshot{
		JobID:         101,
		InvoiceNumber: 101,
		UnitCode:      "17",
		IssueDate:     time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Currency:      invoice.Currency,
		Items:         items,
		Totals:        invoice.Aggregate(items),
	}
}

func TestSanitizeComponent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"17", "17"},
		{"2025-06-03", "2025-06-03"},
		{"a b/c", "a_b_c"},
		{`unit:7\x`, "unit_7_x"},
		{"sh.p.k", "sh.p.k"},
		{"çmim", "__mim"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeComponent(tc.in), "input %q", tc.in)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	t.Run("correct password recovers plaintext", func(t *testing.T) {
		encoded, err := Seal([]byte("payload bytes"), "s3cret")
		require.NoError(t, err)

		got, err := Open(encoded, "s3cret")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload bytes"), got)
	})

	t.Run("wrong password fails authentication", func(t *testing.T) {
		encoded, err := Seal([]byte("payload bytes"), "s3cret")
		require.NoError(t, err)

		_, err = Open(encoded, "wrong")
		assert.Error(t, err)
	})

	t.Run("fresh salt per seal", func(t *testing.T) {
		a, err := Seal([]byte("x"), "pw")
		require.NoError(t, err)
		b, err := Seal([]byte("x"), "pw")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("truncated payload rejected", func(t *testing.T) {
		_, err := Open("AAAA", "pw")
		assert.Error(t, err)
	})
}

func TestEncryptor_Encrypt(t *testing.T) {
	t.Run("writes image and round-trips payload", func(t *testing.T) {
		dir := t.TempDir()
		enc := NewEncryptor("s3cret", dir, zap.NewNop())

		art, err := enc.Encrypt(testSnapshot())
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "17_101_2025-06-03.png"), art.ImagePath)
		info, err := os.Stat(art.ImagePath)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))

		raw, err := Decrypt(art.Encoded, "s3cret")
		require.NoError(t, err)

		var payload Payload
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "101", payload.InvoiceNumber)
		assert.Equal(t, "2025-06-03", payload.Date)
		assert.Equal(t, "27.0000", payload.Subtotal)
		assert.Equal(t, "5.4000", payload.TotalTax)
		assert.Equal(t, "32.4000", payload.GrandTotal)
		assert.Equal(t, "17", payload.UnitCode)
	})

	t.Run("encoded payload is url-safe", func(t *testing.T) {
		dir := t.TempDir()
		enc := NewEncryptor("s3cret", dir, zap.NewNop())

		art, err := enc.Encrypt(testSnapshot())
		require.NoError(t, err)
		assert.NotContains(t, art.Encoded, "+")
		assert.NotContains(t, art.Encoded, "/")
	})

	t.Run("sanitizes filename components", func(t *testing.T) {
		dir := t.TempDir()
		enc := NewEncryptor("s3cret", dir, zap.NewNop())

		snap := testSnapshot()
		snap.UnitCode = "unit 7/a"
		art, err := enc.Encrypt(snap)
		require.NoError(t, err)

		base := filepath.Base(art.ImagePath)
		assert.True(t, strings.HasPrefix(base, "unit_7_a_"), "got %q", base)
	})
}
