package service

import (
	"time"

	"github.com/smallbiznis/faktur/internal/invoice/domain"
)

// deriveStatus computes the lifecycle status from stored fields. The current
// time is passed in rather than read from the wall clock.
func deriveStatus(paid bool, invoiceDate time.Time, dueDays int, now time.Time) domain.InvoiceStatus {
	if paid {
		return domain.StatusPaid
	}
	if now.After(invoiceDate.AddDate(0, 0, dueDays)) {
		return domain.StatusOverdue
	}
	return domain.StatusSent
}

func applyStatus(invoice *domain.Invoice, now time.Time) {
	if invoice == nil {
		return
	}
	invoice.Status = deriveStatus(invoice.Paid, invoice.InvoiceDate, invoice.InvoiceDueDays, now)
}
