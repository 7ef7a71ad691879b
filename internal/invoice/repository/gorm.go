// Package repository provides persistence for the invoice core: a gorm-backed
// implementation and an in-memory double for tests.
package repository

import (
	"context"
	"errors"
	"fmt"

	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/pkg/db"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection as the invoice repository.
func NewStore(db *gorm.DB) invoicedomain.Repository {
	return &Store{db: db}
}

// Module provides the gorm-backed repository.
var Module = fx.Provide(NewStore)

// InTx runs fn inside a database transaction. gorm commits on nil return and
// rolls back on error or panic, so partial writes are never visible.
func (s *Store) InTx(ctx context.Context, fn func(tx invoicedomain.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{queries{db: tx}})
	})
}

func (s *Store) GetHeader(ctx context.Context, userID, invoiceID string) (*invoicedomain.Invoice, error) {
	return queries{db: s.db}.GetHeader(ctx, userID, invoiceID)
}

func (s *Store) GetLineItems(ctx context.Context, userID, invoiceID string) ([]invoicedomain.LineItem, error) {
	return queries{db: s.db}.GetLineItems(ctx, userID, invoiceID)
}

func (s *Store) ListHeaders(ctx context.Context, userID string, page pagination.Page) ([]invoicedomain.Invoice, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var headers []invoicedomain.Invoice
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, invoice_id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&headers).Error
	if err != nil {
		return nil, 0, err
	}

	return headers, total, nil
}

// txStore is the unit-of-work surface bound to one open transaction.
type txStore struct {
	queries
}

// AllocateSequence issues the next number for (user, year) with a single
// atomic upsert. The counter row lock serializes concurrent creates for the
// same pair until the surrounding transaction ends.
func (t *txStore) AllocateSequence(ctx context.Context, userID string, year int) (int64, error) {
	var lastValue int64
	var err error
	if supportsUpsertReturning(t.db.Dialector.Name()) {
		err = t.db.WithContext(ctx).Raw(
			`INSERT INTO sequence_counters (user_id, year, last_value, updated_at)
			 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			 ON CONFLICT (user_id, year) DO UPDATE
			 SET last_value = sequence_counters.last_value + 1,
			     updated_at = CURRENT_TIMESTAMP
			 RETURNING last_value`,
			userID,
			year,
		).Scan(&lastValue).Error
	} else {
		// MySQL has no RETURNING. Upsert first, then read the counter back
		// while the row lock taken by the upsert is still held.
		err = t.db.WithContext(ctx).Exec(
			`INSERT INTO sequence_counters (user_id, year, last_value, updated_at)
			 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			 ON DUPLICATE KEY UPDATE
			     last_value = last_value + 1,
			     updated_at = CURRENT_TIMESTAMP`,
			userID,
			year,
		).Error
		if err == nil {
			err = t.db.WithContext(ctx).Raw(
				`SELECT last_value FROM sequence_counters WHERE user_id = ? AND year = ?`,
				userID,
				year,
			).Scan(&lastValue).Error
		}
	}
	if err != nil {
		return 0, err
	}
	if lastValue < 1 {
		return 0, fmt.Errorf("%w: no sequence value returned for user %s year %d",
			invoicedomain.ErrSequenceExhausted, userID, year)
	}
	return lastValue, nil
}

// supportsUpsertReturning reports whether the dialect can allocate with a
// single INSERT ... ON CONFLICT ... RETURNING statement.
func supportsUpsertReturning(dialect string) bool {
	switch dialect {
	case "postgres", "sqlite":
		return true
	}
	return false
}

func (t *txStore) InsertHeader(ctx context.Context, invoice *invoicedomain.Invoice) error {
	err := t.db.WithContext(ctx).Create(invoice).Error
	if db.IsDuplicateKeyErr(err) {
		return fmt.Errorf("invoice %s already exists for user %s: %w",
			invoice.InvoiceID, invoice.UserID, err)
	}
	return err
}

func (t *txStore) InsertLineItem(ctx context.Context, item *invoicedomain.LineItem) error {
	return t.db.WithContext(ctx).Create(item).Error
}

func (t *txStore) DeleteLineItems(ctx context.Context, userID, invoiceID string) error {
	return t.db.WithContext(ctx).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		Delete(&invoicedomain.LineItem{}).Error
}

func (t *txStore) UpdateHeader(ctx context.Context, userID, invoiceID string, update invoicedomain.HeaderUpdate) (int64, error) {
	result := t.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		Updates(headerColumns(update))
	return result.RowsAffected, result.Error
}

func (t *txStore) DeleteHeader(ctx context.Context, userID, invoiceID string) (int64, error) {
	result := t.db.WithContext(ctx).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		Delete(&invoicedomain.Invoice{})
	return result.RowsAffected, result.Error
}

// headerColumns maps the closed updatable field set to named columns. Only
// fields listed here can ever reach an UPDATE statement.
func headerColumns(update invoicedomain.HeaderUpdate) map[string]any {
	columns := map[string]any{
		"updated_at": update.UpdatedAt,
	}
	if update.InvoiceDate != nil {
		columns["invoice_date"] = *update.InvoiceDate
	}
	if update.InvoiceDueDays != nil {
		columns["invoice_due_days"] = *update.InvoiceDueDays
	}
	if update.Currency != nil {
		columns["currency"] = *update.Currency
	}
	if update.TaxPercentage != nil {
		columns["tax_percentage"] = *update.TaxPercentage
	}
	if update.Paid != nil {
		columns["paid"] = *update.Paid
	}
	if update.SubTotal != nil {
		columns["sub_total"] = *update.SubTotal
	}
	if update.TaxAmount != nil {
		columns["tax_amount"] = *update.TaxAmount
	}
	if update.TotalAmount != nil {
		columns["total_amount"] = *update.TotalAmount
	}
	return columns
}

// queries holds reads shared by the transactional and plain surfaces.
type queries struct {
	db *gorm.DB
}

func (q queries) GetHeader(ctx context.Context, userID, invoiceID string) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (q queries) GetLineItems(ctx context.Context, userID, invoiceID string) ([]invoicedomain.LineItem, error) {
	var items []invoicedomain.LineItem
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		Order("item_id").
		Find(&items).Error
	return items, err
}

var (
	_ invoicedomain.Repository = (*Store)(nil)
	_ invoicedomain.Tx         = (*txStore)(nil)
)
