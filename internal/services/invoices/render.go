package invoices

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; color: #1a1a1a; }
.header { display: flex; justify-content: space-between; margin-bottom: 32px; }
h1 { font-size: 22px; margin: 0; }
.muted { color: #666; font-size: 13px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { text-align: left; padding: 10px 8px; border-bottom: 1px solid #e0e0e0; }
.total { font-weight: bold; font-size: 16px; }
.status { display: inline-block; padding: 2px 10px; border-radius: 10px; background: #e6f6ea; color: #1d7a3a; font-size: 12px; text-transform: uppercase; }
</style>
</head>
<body>
<div class="header">
<div>
<h1>Invoice {{.Number}}</h1>
<div class="muted">Issued {{.IssuedOn}}</div>
</div>
<div><span class="status">{{.Status}}</span></div>
</div>
<div>
<div><strong>Billed to</strong></div>
<div>{{.BuyerName}}</div>
<div class="muted">{{.BuyerEmail}}</div>
</div>
<table>
<tr><th>Item</th><th>Amount</th></tr>
<tr><td>{{.AssetTitle}}</td><td>{{.Amount}} {{.Currency}}</td></tr>
<tr><td class="total">Total</td><td class="total">{{.Amount}} {{.Currency}}</td></tr>
</table>
</body>
</html>
`))

type invoiceView struct {
	Number     string
	IssuedOn   string
	Status     string
	BuyerName  string
	BuyerEmail string
	AssetTitle string
	Amount     string
	Currency   string
}

func renderInvoiceHTML(number string, issuedAt time.Time, status, buyerName, buyerEmail, assetTitle string, amountCents int64, currency string) (string, error) {
	var b strings.Builder
	err := invoiceTemplate.Execute(&b, invoiceView{
		Number:     number,
		IssuedOn:   issuedAt.Format("January 2, 2006"),
		Status:     status,
		BuyerName:  buyerName,
		BuyerEmail: buyerEmail,
		AssetTitle: assetTitle,
		Amount:     formatAmount(amountCents),
		Currency:   currency,
	})
	if err != nil {
		return "", fmt.Errorf("render invoice html: %w", err)
	}
	return b.String(), nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
