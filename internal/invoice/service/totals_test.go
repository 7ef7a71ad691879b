package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals_SingleItemWithTax(t *testing.T) {
	items := []domain.LineItemInput{
		{ItemName: "Consulting", ItemPrice: dec("250"), ItemQuantity: dec("1")},
	}

	totals := computeTotals(items, dec("10"))

	assert.True(t, totals.SubTotal.Equal(dec("250")), "subtotal %s", totals.SubTotal)
	assert.True(t, totals.TaxAmount.Equal(dec("25")), "tax %s", totals.TaxAmount)
	assert.True(t, totals.TotalAmount.Equal(dec("275")), "total %s", totals.TotalAmount)
}

func TestComputeTotals_RoundsEachLineBeforeSumming(t *testing.T) {
	// Each line is 33.333... and rounds to 33.33 individually. Summing the
	// exact values first and rounding once would give 100.00.
	items := []domain.LineItemInput{
		{ItemName: "a", ItemPrice: dec("33.333333"), ItemQuantity: dec("1")},
		{ItemName: "b", ItemPrice: dec("33.333333"), ItemQuantity: dec("1")},
		{ItemName: "c", ItemPrice: dec("33.333333"), ItemQuantity: dec("1")},
	}

	totals := computeTotals(items, decimal.Zero)

	assert.True(t, totals.SubTotal.Equal(dec("99.99")), "subtotal %s", totals.SubTotal)
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.TotalAmount.Equal(dec("99.99")))
}

func TestComputeTotals_FractionalQuantity(t *testing.T) {
	items := []domain.LineItemInput{
		{ItemName: "hours", ItemPrice: dec("99.99"), ItemQuantity: dec("2.5")},
	}

	totals := computeTotals(items, dec("7.5"))

	assert.True(t, totals.SubTotal.Equal(dec("249.98")), "subtotal %s", totals.SubTotal)
	assert.True(t, totals.TaxAmount.Equal(dec("18.75")), "tax %s", totals.TaxAmount)
	assert.True(t, totals.TotalAmount.Equal(dec("268.73")), "total %s", totals.TotalAmount)
}

func TestComputeTotals_ZeroTaxSkipsTaxLine(t *testing.T) {
	items := []domain.LineItemInput{
		{ItemName: "one", ItemPrice: dec("10"), ItemQuantity: dec("3")},
	}

	totals := computeTotals(items, decimal.Zero)

	assert.True(t, totals.SubTotal.Equal(dec("30")))
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.TotalAmount.Equal(dec("30")))
}

func TestComputeTotals_NoItems(t *testing.T) {
	totals := computeTotals(nil, dec("20"))

	assert.True(t, totals.SubTotal.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.TotalAmount.IsZero())
}

func TestNormalizeItems_DefaultsQuantityToOne(t *testing.T) {
	items := normalizeItems([]domain.LineItemInput{
		{ItemName: "a", ItemPrice: dec("5")},
		{ItemName: "b", ItemPrice: dec("5"), ItemQuantity: dec("4")},
	})

	assert.True(t, items[0].ItemQuantity.Equal(dec("1")))
	assert.True(t, items[1].ItemQuantity.Equal(dec("4")))
}
