package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
)

// LineItemInput is a line item as submitted by a caller, before an item
// identifier has been assigned.
type LineItemInput struct {
	ItemName     string          `json:"itemName"`
	ItemPrice    decimal.Decimal `json:"itemPrice"`
	ItemQuantity decimal.Decimal `json:"itemQuantity"`
}

// CreateInvoiceRequest is a validated create command. A zero InvoiceDate
// means "now"; a zero InvoiceDueDays means the default; an empty Currency
// means USD.
type CreateInvoiceRequest struct {
	ClientID       string
	ClientName     string
	InvoiceDate    time.Time
	InvoiceDueDays int
	Currency       Currency
	TaxPercentage  decimal.Decimal
	Paid           bool
	Items          []LineItemInput
}

// UpdateInvoiceRequest is a sparse update; nil fields are left untouched.
// A non-nil Items slice replaces the invoice's items wholesale.
type UpdateInvoiceRequest struct {
	InvoiceDate    *time.Time
	InvoiceDueDays *int
	Currency       *Currency
	TaxPercentage  *decimal.Decimal
	Paid           *bool
	Items          []LineItemInput
}

// Empty reports whether the update names no fields at all.
func (r UpdateInvoiceRequest) Empty() bool {
	return r.InvoiceDate == nil &&
		r.InvoiceDueDays == nil &&
		r.Currency == nil &&
		r.TaxPercentage == nil &&
		r.Paid == nil &&
		r.Items == nil
}

type ListInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
	Count    int64     `json:"count"`
}

// Service is the caller-facing surface of the invoice core. Callers pass a
// pre-authenticated userID; payloads are validated at the edge, though the
// service re-checks the invariants it depends on.
type Service interface {
	Create(ctx context.Context, userID, userName string, req CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, userID, invoiceID string) (*Invoice, error)
	List(ctx context.Context, userID string, page pagination.Page) (ListInvoicesResponse, error)
	Update(ctx context.Context, userID, invoiceID string, req UpdateInvoiceRequest) (*Invoice, error)
	Delete(ctx context.Context, userID, invoiceID string) error
}
