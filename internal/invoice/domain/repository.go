package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
)

// HeaderUpdate is the closed set of updatable invoice header fields. Nil
// pointers leave the column untouched; UpdatedAt is always written.
type HeaderUpdate struct {
	InvoiceDate    *time.Time
	InvoiceDueDays *int
	Currency       *Currency
	TaxPercentage  *decimal.Decimal
	Paid           *bool

	SubTotal    *decimal.Decimal
	TaxAmount   *decimal.Decimal
	TotalAmount *decimal.Decimal

	UpdatedAt time.Time
}

// Reader is the read-only half of the repository, available both inside and
// outside a transaction.
type Reader interface {
	// GetHeader returns the header without items, or nil when absent or
	// owned by a different user.
	GetHeader(ctx context.Context, userID, invoiceID string) (*Invoice, error)
	// GetLineItems returns the invoice's items in insertion order.
	GetLineItems(ctx context.Context, userID, invoiceID string) ([]LineItem, error)
}

// Tx is the unit-of-work surface. Every write goes through a Tx; all writes
// issued on one Tx become visible atomically on commit.
type Tx interface {
	Reader

	// AllocateSequence issues the next sequence number for (user, year),
	// initializing the counter at 1 in the same atomic step. Concurrent
	// callers for the same pair are serialized by the store and always
	// receive distinct values.
	AllocateSequence(ctx context.Context, userID string, year int) (int64, error)
	InsertHeader(ctx context.Context, invoice *Invoice) error
	InsertLineItem(ctx context.Context, item *LineItem) error
	DeleteLineItems(ctx context.Context, userID, invoiceID string) error
	// UpdateHeader applies the update against (invoiceID, userID) and
	// reports the number of affected rows; zero means the invoice does
	// not exist for that user.
	UpdateHeader(ctx context.Context, userID, invoiceID string, update HeaderUpdate) (int64, error)
	DeleteHeader(ctx context.Context, userID, invoiceID string) (int64, error)
}

// Repository is the persistence contract the coordinator depends on.
type Repository interface {
	Reader

	// InTx runs fn inside a transaction: committed when fn returns nil,
	// rolled back when fn returns an error or panics. The error seen by
	// the caller is fn's error, never a rollback error.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// ListHeaders returns one page of the user's headers ordered by
	// creation time, plus the total number of headers the user owns.
	ListHeaders(ctx context.Context, userID string, page pagination.Page) ([]Invoice, int64, error)
}
