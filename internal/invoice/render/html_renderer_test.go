package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInvoice() *invoicedomain.Invoice {
	issued := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &invoicedomain.Invoice{
		UserID:         "b7f5ab0e-4f2c-4f0f-9a3e-1d2f4a5b6c7d",
		InvoiceID:      "2026-7",
		UserName:       "Ada Lovelace",
		ClientID:       "9e8d7c6b-5a49-4838-2716-05f4e3d2c1b0",
		ClientName:     "Globex",
		InvoiceDate:    issued,
		InvoiceDueDays: 7,
		Currency:       invoicedomain.CurrencyUSD,
		TaxPercentage:  dec("10"),
		SubTotal:       dec("250"),
		TaxAmount:      dec("25"),
		TotalAmount:    dec("275"),
		Status:         invoicedomain.StatusSent,
		Items: []invoicedomain.LineItem{
			{
				ItemID:       "1",
				InvoiceID:    "2026-7",
				ItemName:     "Consulting",
				ItemPrice:    dec("125"),
				ItemQuantity: dec("2"),
			},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	r := NewRenderer()
	html, err := r.RenderHTML(testInvoice())
	require.NoError(t, err)

	assert.Contains(t, html, "2026-7")
	assert.Contains(t, html, "Globex")
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "status-sent")
	assert.Contains(t, html, "$275.00")
	assert.Contains(t, html, "Consulting")
	assert.Contains(t, html, "$250.00")
	assert.Contains(t, html, "Tax (10.00%)")
	assert.Contains(t, html, "01 Feb 2026")
	assert.Contains(t, html, "08 Feb 2026")
}

func TestRenderHTML_ZeroTaxOmitsTaxRow(t *testing.T) {
	inv := testInvoice()
	inv.TaxPercentage = decimal.Zero
	inv.TaxAmount = decimal.Zero
	inv.TotalAmount = inv.SubTotal

	r := NewRenderer()
	html, err := r.RenderHTML(inv)
	require.NoError(t, err)
	assert.NotContains(t, html, "Tax (")
}

func TestRenderHTML_EscapesClientName(t *testing.T) {
	inv := testInvoice()
	inv.ClientName = "<script>alert(1)</script>"

	r := NewRenderer()
	html, err := r.RenderHTML(inv)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}
