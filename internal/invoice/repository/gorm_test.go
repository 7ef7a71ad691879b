package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const storeTestUser = "5d1c7a70-93f1-4f6e-8d0a-2b3c4d5e6f70"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.SequenceCounter{},
	))
	return &Store{db: db}
}

func testHeader(invoiceID string) *invoicedomain.Invoice {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return &invoicedomain.Invoice{
		UserID:         storeTestUser,
		InvoiceID:      invoiceID,
		UserName:       "Ada Lovelace",
		ClientID:       "9e8d7c6b-5a49-4838-2716-05f4e3d2c1b0",
		ClientName:     "Globex",
		InvoiceDate:    now,
		InvoiceDueDays: 7,
		Currency:       invoicedomain.CurrencyUSD,
		TaxPercentage:  decimal.NewFromInt(10),
		SubTotal:       decimal.NewFromInt(250),
		TaxAmount:      decimal.NewFromInt(25),
		TotalAmount:    decimal.NewFromInt(275),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func insertHeader(t *testing.T, store *Store, invoiceID string) {
	t.Helper()
	require.NoError(t, store.InTx(context.Background(), func(tx invoicedomain.Tx) error {
		return tx.InsertHeader(context.Background(), testHeader(invoiceID))
	}))
}

func TestAllocateSequence_Dense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		var got int64
		require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
			var err error
			got, err = tx.AllocateSequence(ctx, storeTestUser, 2026)
			return err
		}))
		assert.Equal(t, want, got)
	}
}

func TestAllocateSequence_IndependentPerUserAndYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	otherUser := "11111111-2222-3333-4444-555555555555"

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		seq, err := tx.AllocateSequence(ctx, storeTestUser, 2026)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)

		seq, err = tx.AllocateSequence(ctx, storeTestUser, 2025)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)

		seq, err = tx.AllocateSequence(ctx, otherUser, 2026)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)

		seq, err = tx.AllocateSequence(ctx, storeTestUser, 2026)
		require.NoError(t, err)
		assert.EqualValues(t, 2, seq)
		return nil
	}))
}

func TestAllocateSequence_RolledBackWithTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("abort")

	err := store.InTx(ctx, func(tx invoicedomain.Tx) error {
		seq, err := tx.AllocateSequence(ctx, storeTestUser, 2026)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The aborted allocation is returned to the pool.
	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		seq, err := tx.AllocateSequence(ctx, storeTestUser, 2026)
		require.NoError(t, err)
		assert.EqualValues(t, 1, seq)
		return nil
	}))
}

func TestAllocateSequence_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	store := newTestStore(t)
	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	// A single connection makes concurrent transactions queue instead of
	// failing with a busy database.
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	const callers = 10

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, callers)
		wg   sync.WaitGroup
	)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.InTx(ctx, func(tx invoicedomain.Tx) error {
				seq, err := tx.AllocateSequence(ctx, storeTestUser, 2026)
				if err != nil {
					return err
				}
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, seen, callers)
	for want := int64(1); want <= callers; want++ {
		assert.True(t, seen[want], "sequence %d was never issued", want)
	}
}

func TestSupportsUpsertReturning(t *testing.T) {
	assert.True(t, supportsUpsertReturning("postgres"))
	assert.True(t, supportsUpsertReturning("sqlite"))
	assert.False(t, supportsUpsertReturning("mysql"))
}

func TestGetHeader_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertHeader(t, store, "2026-1")

	got, err := store.GetHeader(ctx, storeTestUser, "2026-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-1", got.InvoiceID)
	assert.Equal(t, "Globex", got.ClientName)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(275)))
}

func TestGetHeader_AbsentReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetHeader(context.Background(), storeTestUser, "2026-404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetHeader_ScopedToUser(t *testing.T) {
	store := newTestStore(t)
	insertHeader(t, store, "2026-1")

	got, err := store.GetHeader(context.Background(), "99999999-8888-7777-6666-555555555555", "2026-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateHeader_RowsAffected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertHeader(t, store, "2026-1")

	paid := true
	update := invoicedomain.HeaderUpdate{
		Paid:      &paid,
		UpdatedAt: time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		affected, err := tx.UpdateHeader(ctx, storeTestUser, "2026-1", update)
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)

		affected, err = tx.UpdateHeader(ctx, storeTestUser, "2026-404", update)
		require.NoError(t, err)
		assert.EqualValues(t, 0, affected)
		return nil
	}))

	got, err := store.GetHeader(ctx, storeTestUser, "2026-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Paid)
	// Untouched fields keep their values.
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(275)))
	assert.Equal(t, invoicedomain.CurrencyUSD, got.Currency)
}

func TestDelete_LeavesNoOrphanItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertHeader(t, store, "2026-1")

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		for i := 1; i <= 3; i++ {
			err := tx.InsertLineItem(ctx, &invoicedomain.LineItem{
				ItemID:       fmt.Sprintf("item-%d", i),
				UserID:       storeTestUser,
				InvoiceID:    "2026-1",
				ItemName:     "Widget",
				ItemPrice:    decimal.NewFromInt(10),
				ItemQuantity: decimal.NewFromInt(1),
				CreatedAt:    time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
		}
		return nil
	}))

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		if err := tx.DeleteLineItems(ctx, storeTestUser, "2026-1"); err != nil {
			return err
		}
		affected, err := tx.DeleteHeader(ctx, storeTestUser, "2026-1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)
		return nil
	}))

	header, err := store.GetHeader(ctx, storeTestUser, "2026-1")
	require.NoError(t, err)
	assert.Nil(t, header)

	items, err := store.GetLineItems(ctx, storeTestUser, "2026-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteHeader_AbsentAffectsNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		affected, err := tx.DeleteHeader(ctx, storeTestUser, "2026-404")
		require.NoError(t, err)
		assert.EqualValues(t, 0, affected)
		return nil
	}))
}

func TestInTx_RollsBackPartialWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("abort")

	err := store.InTx(ctx, func(tx invoicedomain.Tx) error {
		if err := tx.InsertHeader(ctx, testHeader("2026-1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	header, err := store.GetHeader(ctx, storeTestUser, "2026-1")
	require.NoError(t, err)
	assert.Nil(t, header)
}

func TestListHeaders_OrderAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InTx(ctx, func(tx invoicedomain.Tx) error {
		for i := 1; i <= 5; i++ {
			header := testHeader(fmt.Sprintf("2026-%d", i))
			header.CreatedAt = header.CreatedAt.Add(time.Duration(i) * time.Minute)
			if err := tx.InsertHeader(ctx, header); err != nil {
				return err
			}
		}
		return nil
	}))

	headers, total, err := store.ListHeaders(ctx, storeTestUser, pagination.Page{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, headers, 2)
	assert.Equal(t, "2026-5", headers[0].InvoiceID)
	assert.Equal(t, "2026-4", headers[1].InvoiceID)

	headers, total, err = store.ListHeaders(ctx, storeTestUser, pagination.Page{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, headers, 1)
	assert.Equal(t, "2026-1", headers[0].InvoiceID)
}

func TestListHeaders_EmptyForUnknownUser(t *testing.T) {
	store := newTestStore(t)

	headers, total, err := store.ListHeaders(context.Background(), storeTestUser, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, headers)
}
