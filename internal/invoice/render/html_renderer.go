package render

import (
	"bytes"
	"html/template"
	"time"

	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"github.com/smallbiznis/faktur/internal/invoice/format"
	"github.com/shopspring/decimal"
)

// Renderer produces a printable document for an invoice.
type Renderer interface {
	RenderHTML(invoice *invoicedomain.Invoice) (string, error)
}

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceID}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
      -webkit-font-smoothing: antialiased;
    }
    .invoice-card {
      background: #ffffff;
      max-width: 760px;
      margin: 0 auto;
      padding: 60px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
      border-radius: 4px;
    }
    .header {
      display: flex;
      justify-content: space-between;
      margin-bottom: 40px;
    }
    .header-left h1 {
      margin: 0;
      font-size: 24px;
      font-weight: 700;
    }
    .header-right {
      text-align: right;
      font-weight: 600;
      color: #8792a2;
      font-size: 16px;
    }
    .status {
      display: inline-block;
      padding: 2px 10px;
      border-radius: 10px;
      font-size: 12px;
      font-weight: 600;
      text-transform: uppercase;
      letter-spacing: 0.3px;
    }
    .status-paid { background: #d7f7c2; color: #05690d; }
    .status-sent { background: #e3e8ee; color: #3c4257; }
    .status-overdue { background: #ffe7e0; color: #b3093c; }

    .meta-grid {
      display: flex;
      justify-content: space-between;
      margin-bottom: 40px;
    }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    .value {
      font-size: 14px;
      line-height: 1.5;
    }

    .amount-section { margin-bottom: 40px; }
    .amount-large {
      font-size: 32px;
      font-weight: 700;
      margin-bottom: 4px;
    }

    table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 30px;
    }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #8792a2;
      border-bottom: 1px solid #e3e8ee;
      padding: 10px 0;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    td {
      padding: 16px 0;
      border-bottom: 1px solid #e3e8ee;
      font-size: 14px;
      vertical-align: top;
    }
    .td-right { text-align: right; }

    .totals {
      width: 100%;
      display: flex;
      flex-direction: column;
      align-items: flex-end;
    }
    .total-row {
      display: flex;
      justify-content: space-between;
      width: 250px;
      padding: 6px 0;
      font-size: 14px;
    }
    .total-label { color: #697386; }
    .total-value { text-align: right; font-weight: 500; }
    .total-final {
      border-top: 1px solid #e3e8ee;
      margin-top: 10px;
      padding-top: 10px;
      font-weight: 700;
      font-size: 16px;
    }

    .footer {
      margin-top: 60px;
      font-size: 12px;
      color: #8792a2;
      border-top: 1px solid #e3e8ee;
      padding-top: 20px;
    }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div class="header-left">
        <h1>Invoice</h1>
        <div class="label" style="margin-top: 12px;">Invoice number</div>
        <div class="value">{{.Invoice.InvoiceID}}</div>
      </div>
      <div class="header-right">
        <span class="status status-{{.Invoice.Status}}">{{.Invoice.Status}}</span>
      </div>
    </div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">Bill to</div>
        <div class="value">
          <strong>{{.Invoice.ClientName}}</strong>
        </div>
        <div class="label" style="margin-top: 16px;">From</div>
        <div class="value">{{.Invoice.UserName}}</div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Date issued</div>
        <div class="value">{{formatDate .Invoice.InvoiceDate}}</div>

        <div class="label" style="margin-top: 16px;">Date due</div>
        <div class="value">{{formatDate .DueAt}}</div>
      </div>
    </div>

    <div class="amount-section">
      <div class="amount-large">{{money .Invoice.Currency .Invoice.TotalAmount}}</div>
      <div class="value" style="color: #697386;">due {{formatDate .DueAt}}</div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 50%;">Description</th>
          <th class="td-right">Qty</th>
          <th class="td-right">Unit Price</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Invoice.Items}}
        <tr>
          <td>{{.ItemName}}</td>
          <td class="td-right">{{.ItemQuantity}}</td>
          <td class="td-right">{{money $.Invoice.Currency .ItemPrice}}</td>
          <td class="td-right" style="font-weight: 500;">{{money $.Invoice.Currency (lineAmount .)}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row">
        <span class="total-label">Subtotal</span>
        <span class="total-value">{{money .Invoice.Currency .Invoice.SubTotal}}</span>
      </div>
      {{if .Invoice.TaxAmount.IsPositive}}
      <div class="total-row">
        <span class="total-label">Tax ({{.Invoice.TaxPercentage.StringFixed 2}}%)</span>
        <span class="total-value">{{money .Invoice.Currency .Invoice.TaxAmount}}</span>
      </div>
      {{end}}
      <div class="total-row total-final">
        <span class="total-label" style="color: #1a1f36;">Total</span>
        <span class="total-value">{{money .Invoice.Currency .Invoice.TotalAmount}}</span>
      </div>
    </div>

    <div class="footer">
      Generated on {{formatDate .GeneratedAt}}.
    </div>
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
	now func() time.Time
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatDate": format.FormatDate,
		"money": func(currency invoicedomain.Currency, amount decimal.Decimal) string {
			return format.FormatMoney(string(currency), amount)
		},
		"lineAmount": func(item invoicedomain.LineItem) decimal.Decimal {
			return item.ItemPrice.Mul(item.ItemQuantity).Round(2)
		},
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
		now: time.Now,
	}
}

type renderInput struct {
	Invoice     *invoicedomain.Invoice
	DueAt       time.Time
	GeneratedAt time.Time
}

func (r *HTMLRenderer) RenderHTML(invoice *invoicedomain.Invoice) (string, error) {
	input := renderInput{
		Invoice:     invoice,
		DueAt:       invoice.InvoiceDate.AddDate(0, 0, invoice.InvoiceDueDays),
		GeneratedAt: r.now(),
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}
