package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/faktur/internal/invoice/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals are the computed monetary fields of an invoice header.
type Totals struct {
	SubTotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// computeTotals aggregates line items into subtotal, tax and total. Each
// line amount and the running sum is rounded to 2 decimal places before the
// next accumulation step; historical records were written with that exact
// sequence of truncations, so a single final rounding would drift by a cent
// on some inputs.
func computeTotals(items []domain.LineItemInput, taxPercentage decimal.Decimal) Totals {
	subTotal := decimal.Zero
	for _, item := range items {
		line := item.ItemPrice.Mul(item.ItemQuantity).Round(2)
		subTotal = subTotal.Add(line).Round(2)
	}

	taxAmount := decimal.Zero
	if taxPercentage.IsPositive() {
		taxAmount = subTotal.Mul(taxPercentage).Div(hundred).Round(2)
	}

	return Totals{
		SubTotal:    subTotal,
		TaxAmount:   taxAmount,
		TotalAmount: subTotal.Add(taxAmount).Round(2),
	}
}

// normalizeItems applies the quantity default of 1 to submitted items.
func normalizeItems(items []domain.LineItemInput) []domain.LineItemInput {
	normalized := make([]domain.LineItemInput, len(items))
	for i, item := range items {
		if item.ItemQuantity.IsZero() {
			item.ItemQuantity = decimal.NewFromInt(1)
		}
		normalized[i] = item
	}
	return normalized
}

// itemInputs converts stored line items back to aggregation inputs.
func itemInputs(items []domain.LineItem) []domain.LineItemInput {
	inputs := make([]domain.LineItemInput, len(items))
	for i, item := range items {
		inputs[i] = domain.LineItemInput{
			ItemName:     item.ItemName,
			ItemPrice:    item.ItemPrice,
			ItemQuantity: item.ItemQuantity,
		}
	}
	return inputs
}
