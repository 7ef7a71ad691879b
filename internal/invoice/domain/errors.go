package domain

import "errors"

var (
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrNoLineItems        = errors.New("invoice_requires_line_items")
	ErrNoUpdatableFields  = errors.New("update_requires_fields")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidDueDays     = errors.New("invalid_due_days")
	ErrInvalidPercentage  = errors.New("invalid_tax_percentage")
	ErrInvalidLineItem    = errors.New("invalid_line_item")
	ErrSequenceExhausted  = errors.New("sequence_allocation_failed")
)
