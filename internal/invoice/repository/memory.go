package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
)

// Memory is an in-memory Repository used in tests. A whole transaction runs
// under one lock against a staged copy of the state, so rollback and atomic
// visibility behave like the real store. Errors can be injected per operation
// to exercise rollback paths.
type Memory struct {
	mu       sync.Mutex
	headers  map[string]invoicedomain.Invoice
	items    map[string][]invoicedomain.LineItem
	counters map[string]int64
	failures map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		headers:  make(map[string]invoicedomain.Invoice),
		items:    make(map[string][]invoicedomain.LineItem),
		counters: make(map[string]int64),
		failures: make(map[string]error),
	}
}

// FailNext makes the next call to the named Tx operation (e.g.
// "DeleteLineItems") return err.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *Memory) InTx(ctx context.Context, fn func(tx invoicedomain.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		parent:   m,
		headers:  copyHeaders(m.headers),
		items:    copyItems(m.items),
		counters: copyCounters(m.counters),
	}
	if err := fn(tx); err != nil {
		return err
	}

	m.headers = tx.headers
	m.items = tx.items
	m.counters = tx.counters
	return nil
}

func (m *Memory) GetHeader(ctx context.Context, userID, invoiceID string) (*invoicedomain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getHeader(m.headers, userID, invoiceID), nil
}

func (m *Memory) GetLineItems(ctx context.Context, userID, invoiceID string) ([]invoicedomain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getLineItems(m.items, userID, invoiceID), nil
}

func (m *Memory) ListHeaders(ctx context.Context, userID string, page pagination.Page) ([]invoicedomain.Invoice, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []invoicedomain.Invoice
	for key, header := range m.headers {
		if strings.HasPrefix(key, userID+"/") {
			all = append(all, header)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].InvoiceID > all[j].InvoiceID
	})

	total := int64(len(all))
	if page.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[page.Offset:]
	if page.Limit < len(all) {
		all = all[:page.Limit]
	}
	return all, total, nil
}

// memTx mutates staged copies; Memory.InTx publishes them on success.
type memTx struct {
	parent   *Memory
	headers  map[string]invoicedomain.Invoice
	items    map[string][]invoicedomain.LineItem
	counters map[string]int64
}

func (t *memTx) fail(op string) error {
	if err, ok := t.parent.failures[op]; ok {
		delete(t.parent.failures, op)
		return err
	}
	return nil
}

func (t *memTx) AllocateSequence(ctx context.Context, userID string, year int) (int64, error) {
	if err := t.fail("AllocateSequence"); err != nil {
		return 0, err
	}
	key := fmt.Sprintf("%s/%d", userID, year)
	t.counters[key]++
	return t.counters[key], nil
}

func (t *memTx) InsertHeader(ctx context.Context, invoice *invoicedomain.Invoice) error {
	if err := t.fail("InsertHeader"); err != nil {
		return err
	}
	key := invoice.UserID + "/" + invoice.InvoiceID
	if _, exists := t.headers[key]; exists {
		return fmt.Errorf("duplicate invoice %s", invoice.InvoiceID)
	}
	header := *invoice
	header.Items = nil
	t.headers[key] = header
	return nil
}

func (t *memTx) InsertLineItem(ctx context.Context, item *invoicedomain.LineItem) error {
	if err := t.fail("InsertLineItem"); err != nil {
		return err
	}
	key := item.UserID + "/" + item.InvoiceID
	t.items[key] = append(t.items[key], *item)
	return nil
}

func (t *memTx) DeleteLineItems(ctx context.Context, userID, invoiceID string) error {
	if err := t.fail("DeleteLineItems"); err != nil {
		return err
	}
	delete(t.items, userID+"/"+invoiceID)
	return nil
}

func (t *memTx) UpdateHeader(ctx context.Context, userID, invoiceID string, update invoicedomain.HeaderUpdate) (int64, error) {
	if err := t.fail("UpdateHeader"); err != nil {
		return 0, err
	}
	key := userID + "/" + invoiceID
	header, ok := t.headers[key]
	if !ok {
		return 0, nil
	}
	if update.InvoiceDate != nil {
		header.InvoiceDate = *update.InvoiceDate
	}
	if update.InvoiceDueDays != nil {
		header.InvoiceDueDays = *update.InvoiceDueDays
	}
	if update.Currency != nil {
		header.Currency = *update.Currency
	}
	if update.TaxPercentage != nil {
		header.TaxPercentage = *update.TaxPercentage
	}
	if update.Paid != nil {
		header.Paid = *update.Paid
	}
	if update.SubTotal != nil {
		header.SubTotal = *update.SubTotal
	}
	if update.TaxAmount != nil {
		header.TaxAmount = *update.TaxAmount
	}
	if update.TotalAmount != nil {
		header.TotalAmount = *update.TotalAmount
	}
	header.UpdatedAt = update.UpdatedAt
	t.headers[key] = header
	return 1, nil
}

func (t *memTx) DeleteHeader(ctx context.Context, userID, invoiceID string) (int64, error) {
	if err := t.fail("DeleteHeader"); err != nil {
		return 0, err
	}
	key := userID + "/" + invoiceID
	if _, ok := t.headers[key]; !ok {
		return 0, nil
	}
	delete(t.headers, key)
	return 1, nil
}

func (t *memTx) GetHeader(ctx context.Context, userID, invoiceID string) (*invoicedomain.Invoice, error) {
	if err := t.fail("GetHeader"); err != nil {
		return nil, err
	}
	return getHeader(t.headers, userID, invoiceID), nil
}

func (t *memTx) GetLineItems(ctx context.Context, userID, invoiceID string) ([]invoicedomain.LineItem, error) {
	if err := t.fail("GetLineItems"); err != nil {
		return nil, err
	}
	return getLineItems(t.items, userID, invoiceID), nil
}

func getHeader(headers map[string]invoicedomain.Invoice, userID, invoiceID string) *invoicedomain.Invoice {
	header, ok := headers[userID+"/"+invoiceID]
	if !ok {
		return nil
	}
	copied := header
	return &copied
}

func getLineItems(items map[string][]invoicedomain.LineItem, userID, invoiceID string) []invoicedomain.LineItem {
	stored := items[userID+"/"+invoiceID]
	out := make([]invoicedomain.LineItem, len(stored))
	copy(out, stored)
	return out
}

func copyHeaders(src map[string]invoicedomain.Invoice) map[string]invoicedomain.Invoice {
	dst := make(map[string]invoicedomain.Invoice, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyItems(src map[string][]invoicedomain.LineItem) map[string][]invoicedomain.LineItem {
	dst := make(map[string][]invoicedomain.LineItem, len(src))
	for k, v := range src {
		items := make([]invoicedomain.LineItem, len(v))
		copy(items, v)
		dst[k] = items
	}
	return dst
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

var (
	_ invoicedomain.Repository = (*Memory)(nil)
	_ invoicedomain.Tx         = (*memTx)(nil)
)
