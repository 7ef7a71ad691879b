package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/pkg/db/pagination"
)

type lineItemPayload struct {
	ItemName     string           `json:"itemName"`
	ItemPrice    decimal.Decimal  `json:"itemPrice"`
	ItemQuantity *decimal.Decimal `json:"itemQuantity"`
}

type createInvoicePayload struct {
	ClientID       string            `json:"clientId"`
	ClientName     string            `json:"clientName"`
	InvoiceDate    *time.Time        `json:"invoiceDate"`
	InvoiceDueDays *int              `json:"invoiceDueDays"`
	Currency       string            `json:"currency"`
	TaxPercentage  *decimal.Decimal  `json:"taxPercentage"`
	Paid           bool              `json:"paid"`
	Items          []lineItemPayload `json:"items"`
}

type updateInvoicePayload struct {
	InvoiceDate    *time.Time        `json:"invoiceDate"`
	InvoiceDueDays *int              `json:"invoiceDueDays"`
	Currency       *string           `json:"currency"`
	TaxPercentage  *decimal.Decimal  `json:"taxPercentage"`
	Paid           *bool             `json:"paid"`
	Items          []lineItemPayload `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var payload createInvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	if len(payload.Items) == 0 {
		AbortWithError(c, newValidationError("items", "missing_items", "at least one line item is required"))
		return
	}
	items, err := validateItems(payload.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if payload.InvoiceDueDays != nil {
		if err := validateDueDays(*payload.InvoiceDueDays); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	currency, err := validateCurrency(payload.Currency)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	taxPercentage, err := validateTaxPercentage(payload.TaxPercentage)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := invoicedomain.CreateInvoiceRequest{
		ClientID:      payload.ClientID,
		ClientName:    payload.ClientName,
		Currency:      currency,
		TaxPercentage: taxPercentage,
		Paid:          payload.Paid,
		Items:         items,
	}
	if payload.InvoiceDate != nil {
		req.InvoiceDate = *payload.InvoiceDate
	}
	if payload.InvoiceDueDays != nil {
		req.InvoiceDueDays = *payload.InvoiceDueDays
	}

	userID, userName := callerIdentity(c)
	invoice, err := s.invoiceSvc.Create(c.Request.Context(), userID, userName, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid query parameters"))
		return
	}
	page = page.Normalize()

	userID, _ := callerIdentity(c)
	resp, err := s.invoiceSvc.List(c.Request.Context(), userID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Param("invoiceId"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoiceId", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	userID, _ := callerIdentity(c)
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Param("invoiceId"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoiceId", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	var payload updateInvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	req := invoicedomain.UpdateInvoiceRequest{
		InvoiceDate:    payload.InvoiceDate,
		InvoiceDueDays: payload.InvoiceDueDays,
		TaxPercentage:  payload.TaxPercentage,
		Paid:           payload.Paid,
	}
	if payload.InvoiceDueDays != nil {
		if err := validateDueDays(*payload.InvoiceDueDays); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if payload.Currency != nil {
		currency, err := validateCurrency(*payload.Currency)
		if err != nil || currency == "" {
			AbortWithError(c, newValidationError("currency", "invalid_currency", "currency must be one of USD, EUR, GBP"))
			return
		}
		req.Currency = &currency
	}
	if payload.TaxPercentage != nil {
		if _, err := validateTaxPercentage(payload.TaxPercentage); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if payload.Items != nil {
		items, err := validateItems(payload.Items)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Items = items
	}

	userID, _ := callerIdentity(c)
	invoice, err := s.invoiceSvc.Update(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Param("invoiceId"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoiceId", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	userID, _ := callerIdentity(c)
	if err := s.invoiceSvc.Delete(c.Request.Context(), userID, invoiceID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetInvoiceHTML(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Param("invoiceId"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoiceId", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	userID, _ := callerIdentity(c)
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(invoice)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func validateItems(payloads []lineItemPayload) ([]invoicedomain.LineItemInput, error) {
	items := make([]invoicedomain.LineItemInput, 0, len(payloads))
	for _, p := range payloads {
		if strings.TrimSpace(p.ItemName) == "" {
			return nil, newValidationError("items", "invalid_item", "item name is required")
		}
		if !p.ItemPrice.IsPositive() {
			return nil, newValidationError("items", "invalid_item", "item price must be positive")
		}
		item := invoicedomain.LineItemInput{
			ItemName:  p.ItemName,
			ItemPrice: p.ItemPrice,
		}
		if p.ItemQuantity != nil {
			if !p.ItemQuantity.IsPositive() {
				return nil, newValidationError("items", "invalid_item", "item quantity must be positive")
			}
			item.ItemQuantity = *p.ItemQuantity
		}
		items = append(items, item)
	}
	return items, nil
}

func validateDueDays(days int) error {
	if days < 1 || days > invoicedomain.MaxDueDays {
		return newValidationError("invoiceDueDays", "invalid_due_days", "due days must be between 1 and 30")
	}
	return nil
}

func validateCurrency(raw string) (invoicedomain.Currency, error) {
	if raw == "" {
		return "", nil
	}
	currency := invoicedomain.Currency(strings.ToUpper(raw))
	if !currency.Valid() {
		return "", newValidationError("currency", "invalid_currency", "currency must be one of USD, EUR, GBP")
	}
	return currency, nil
}

func validateTaxPercentage(value *decimal.Decimal) (decimal.Decimal, error) {
	if value == nil {
		return decimal.Zero, nil
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, newValidationError("taxPercentage", "invalid_tax_percentage", "tax percentage must be between 0 and 100")
	}
	return *value, nil
}
