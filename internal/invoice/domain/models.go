// Package domain contains persistence models and contracts for invoicing.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the derived lifecycle state of an invoice. It is computed
// from the paid flag and dates at read time and never stored.
type InvoiceStatus string

const (
	StatusSent    InvoiceStatus = "sent"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// Currency is the closed set of supported invoice currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

const (
	// DefaultDueDays applies when a create payload omits the due offset.
	DefaultDueDays = 7
	// MaxDueDays caps the due offset.
	MaxDueDays = 30
)

// Invoice is an invoice header. The identifier is "{year}-{sequence}" where
// the sequence is issued per (user, year) and the year is taken from the
// invoice date; it is immutable once assigned.
type Invoice struct {
	UserID         string          `gorm:"primaryKey;type:uuid" json:"userId"`
	InvoiceID      string          `gorm:"primaryKey" json:"invoiceId"`
	UserName       string          `gorm:"type:text;not null" json:"userName"`
	ClientID       string          `gorm:"type:uuid;not null;index" json:"clientId"`
	ClientName     string          `gorm:"type:text;not null" json:"clientName"`
	InvoiceDate    time.Time       `gorm:"not null" json:"invoiceDate"`
	InvoiceDueDays int             `gorm:"not null;default:7" json:"invoiceDueDays"`
	Currency       Currency        `gorm:"type:text;not null;default:'USD'" json:"currency"`
	TaxPercentage  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"taxPercentage"`
	SubTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subTotal"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"taxAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`
	Paid           bool            `gorm:"not null;default:false" json:"paid"`
	CreatedAt      time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updatedAt"`

	// Derived, never persisted.
	Status InvoiceStatus `gorm:"-" json:"status"`
	// Owned by the header; maintained explicitly by the repository, not by
	// gorm associations.
	Items []LineItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// LineItem is one billable entry within an invoice. Items are keyed by
// (user, invoice) because invoice identifiers are only unique per user.
type LineItem struct {
	ItemID       string          `gorm:"primaryKey" json:"itemId"`
	UserID       string          `gorm:"type:uuid;not null;index:idx_line_items_invoice" json:"-"`
	InvoiceID    string          `gorm:"not null;index:idx_line_items_invoice" json:"invoiceId"`
	ItemName     string          `gorm:"type:text;not null" json:"itemName"`
	ItemPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"itemPrice"`
	ItemQuantity decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1" json:"itemQuantity"`
	CreatedAt    time.Time       `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "line_items" }

// SequenceCounter holds the last-issued invoice sequence per (user, year).
// Counters are created on first allocation and never deleted or decremented,
// so issued numbers are never reused.
type SequenceCounter struct {
	UserID    string    `gorm:"primaryKey;type:uuid"`
	Year      int       `gorm:"primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (SequenceCounter) TableName() string { return "sequence_counters" }
