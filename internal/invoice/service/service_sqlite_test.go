package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/faktur/internal/clock"
	"github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/internal/invoice/repository"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepo(t *testing.T) domain.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Invoice{},
		&domain.LineItem{},
		&domain.SequenceCounter{},
	))
	return repository.NewStore(conn)
}

func TestService_SQLiteLifecycle(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, newSQLiteRepo(t), clk)
	ctx := context.Background()

	first, err := svc.Create(ctx, testUserID, testUserName, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "2026-1", first.InvoiceID)
	assert.True(t, first.TotalAmount.Equal(dec("275")))

	second, err := svc.Create(ctx, testUserID, testUserName, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "2026-2", second.InvoiceID)

	paid := true
	updated, err := svc.Update(ctx, testUserID, first.InvoiceID, domain.UpdateInvoiceRequest{Paid: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.True(t, updated.TotalAmount.Equal(dec("275")))
	require.Len(t, updated.Items, 1)

	list, err := svc.List(ctx, testUserID, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Count)
	require.Len(t, list.Invoices, 2)

	require.NoError(t, svc.Delete(ctx, testUserID, second.InvoiceID))
	_, err = svc.GetByID(ctx, testUserID, second.InvoiceID)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	list, err = svc.List(ctx, testUserID, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Count)
}

func TestService_SQLiteSequenceSurvivesValidationFailure(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, newSQLiteRepo(t), clk)
	ctx := context.Background()

	_, err := svc.Create(ctx, testUserID, testUserName, domain.CreateInvoiceRequest{
		ClientName: "Globex",
	})
	require.ErrorIs(t, err, domain.ErrNoLineItems)

	created, err := svc.Create(ctx, testUserID, testUserName, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "2026-1", created.InvoiceID)
}
