package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktur/internal/clock"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/internal/invoice/format"
	"github.com/smallbiznis/faktur/internal/observability/metrics"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Repo    invoicedomain.Repository
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

// Service coordinates invoice writes. Each operation runs as a single
// all-or-nothing unit over the header, its line items and, on create, the
// sequence counter.
type Service struct {
	repo    invoicedomain.Repository
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		repo:    p.Repo,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, userID, userName string, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if len(req.Items) == 0 {
		return nil, invoicedomain.ErrNoLineItems
	}

	start := time.Now()
	now := s.clock.Now()

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = now
	}
	dueDays := req.InvoiceDueDays
	if dueDays == 0 {
		dueDays = invoicedomain.DefaultDueDays
	}
	currency := req.Currency
	if currency == "" {
		currency = invoicedomain.CurrencyUSD
	}

	items := normalizeItems(req.Items)
	totals := computeTotals(items, req.TaxPercentage)
	year := invoiceDate.Year()

	var created *invoicedomain.Invoice
	err := s.repo.InTx(ctx, func(tx invoicedomain.Tx) error {
		sequence, err := tx.AllocateSequence(ctx, userID, year)
		if err != nil {
			return err
		}
		invoiceID, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, invoiceDate, sequence)
		if err != nil {
			return err
		}

		invoice := &invoicedomain.Invoice{
			UserID:         userID,
			InvoiceID:      invoiceID,
			UserName:       userName,
			ClientID:       req.ClientID,
			ClientName:     req.ClientName,
			InvoiceDate:    invoiceDate,
			InvoiceDueDays: dueDays,
			Currency:       currency,
			TaxPercentage:  req.TaxPercentage,
			SubTotal:       totals.SubTotal,
			TaxAmount:      totals.TaxAmount,
			TotalAmount:    totals.TotalAmount,
			Paid:           req.Paid,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertHeader(ctx, invoice); err != nil {
			return err
		}

		for _, input := range items {
			item := &invoicedomain.LineItem{
				ItemID:       s.genID.Generate().String(),
				UserID:       userID,
				InvoiceID:    invoice.InvoiceID,
				ItemName:     input.ItemName,
				ItemPrice:    input.ItemPrice,
				ItemQuantity: input.ItemQuantity,
				CreatedAt:    now,
			}
			if err := tx.InsertLineItem(ctx, item); err != nil {
				return err
			}
			invoice.Items = append(invoice.Items, *item)
		}

		created = invoice
		return nil
	})
	if err != nil {
		s.metrics.RecordRollback(ctx, "create")
		s.log.Error("invoice create rolled back", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordSequenceAllocation(ctx, year)
	s.metrics.RecordInvoiceWrite(ctx, "create", time.Since(start))
	s.log.Info("invoice created",
		zap.String("invoice_id", created.InvoiceID),
		zap.Int("line_items", len(created.Items)),
	)

	applyStatus(created, s.clock.Now())
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, userID, invoiceID string) (*invoicedomain.Invoice, error) {
	header, err := s.repo.GetHeader(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}

	items, err := s.repo.GetLineItems(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	header.Items = items

	applyStatus(header, s.clock.Now())
	return header, nil
}

func (s *Service) List(ctx context.Context, userID string, page pagination.Page) (invoicedomain.ListInvoicesResponse, error) {
	headers, total, err := s.repo.ListHeaders(ctx, userID, page.Normalize())
	if err != nil {
		return invoicedomain.ListInvoicesResponse{}, err
	}
	if total == 0 {
		return invoicedomain.ListInvoicesResponse{}, invoicedomain.ErrInvoiceNotFound
	}

	now := s.clock.Now()
	for i := range headers {
		applyStatus(&headers[i], now)
	}

	return invoicedomain.ListInvoicesResponse{Invoices: headers, Count: total}, nil
}

func (s *Service) Update(ctx context.Context, userID, invoiceID string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	if req.Empty() {
		return nil, invoicedomain.ErrNoUpdatableFields
	}
	if req.Items != nil && len(req.Items) == 0 {
		return nil, invoicedomain.ErrNoLineItems
	}

	start := time.Now()
	now := s.clock.Now()

	var updated *invoicedomain.Invoice
	err := s.repo.InTx(ctx, func(tx invoicedomain.Tx) error {
		update := invoicedomain.HeaderUpdate{
			InvoiceDate:    req.InvoiceDate,
			InvoiceDueDays: req.InvoiceDueDays,
			Currency:       req.Currency,
			TaxPercentage:  req.TaxPercentage,
			Paid:           req.Paid,
			UpdatedAt:      now,
		}

		// Monetary fields are recomputed when the item set or the tax
		// percentage changes; everything else skips re-aggregation.
		if req.Items != nil || req.TaxPercentage != nil {
			taxPercentage := req.TaxPercentage
			if taxPercentage == nil {
				header, err := tx.GetHeader(ctx, userID, invoiceID)
				if err != nil {
					return err
				}
				if header == nil {
					return invoicedomain.ErrInvoiceNotFound
				}
				taxPercentage = &header.TaxPercentage
			}

			inputs := req.Items
			if inputs == nil {
				existing, err := tx.GetLineItems(ctx, userID, invoiceID)
				if err != nil {
					return err
				}
				inputs = itemInputs(existing)
			}

			totals := computeTotals(normalizeItems(inputs), *taxPercentage)
			update.SubTotal = &totals.SubTotal
			update.TaxAmount = &totals.TaxAmount
			update.TotalAmount = &totals.TotalAmount
		}

		affected, err := tx.UpdateHeader(ctx, userID, invoiceID, update)
		if err != nil {
			return err
		}
		if affected == 0 {
			return invoicedomain.ErrInvoiceNotFound
		}

		if req.Items != nil {
			if err := tx.DeleteLineItems(ctx, userID, invoiceID); err != nil {
				return err
			}
			for _, input := range normalizeItems(req.Items) {
				item := &invoicedomain.LineItem{
					ItemID:       s.genID.Generate().String(),
					UserID:       userID,
					InvoiceID:    invoiceID,
					ItemName:     input.ItemName,
					ItemPrice:    input.ItemPrice,
					ItemQuantity: input.ItemQuantity,
					CreatedAt:    now,
				}
				if err := tx.InsertLineItem(ctx, item); err != nil {
					return err
				}
			}
		}

		header, err := tx.GetHeader(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if header == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		items, err := tx.GetLineItems(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		header.Items = items

		updated = header
		return nil
	})
	if err != nil {
		s.metrics.RecordRollback(ctx, "update")
		if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
			s.log.Error("invoice update rolled back",
				zap.String("invoice_id", invoiceID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.metrics.RecordInvoiceWrite(ctx, "update", time.Since(start))

	applyStatus(updated, s.clock.Now())
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, invoiceID string) error {
	start := time.Now()

	err := s.repo.InTx(ctx, func(tx invoicedomain.Tx) error {
		if err := tx.DeleteLineItems(ctx, userID, invoiceID); err != nil {
			return err
		}
		affected, err := tx.DeleteHeader(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return invoicedomain.ErrInvoiceNotFound
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordRollback(ctx, "delete")
		if !errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
			s.log.Error("invoice delete rolled back",
				zap.String("invoice_id", invoiceID),
				zap.Error(err),
			)
		}
		return err
	}

	s.metrics.RecordInvoiceWrite(ctx, "delete", time.Since(start))
	s.log.Info("invoice deleted", zap.String("invoice_id", invoiceID))
	return nil
}
