package httpapi

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"electropos/backend/internal/domain"
)

// formatCents renders a cent amount as a decimal string, e.g. 249999 -> "2499.99".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var printFuncs = template.FuncMap{
	"money": formatCents,
	"date": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(printFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Sale.InvoiceNo}}</title>
<style>
body { font-family: monospace; max-width: 420px; margin: 0 auto; padding: 12px; }
h1 { font-size: 16px; text-align: center; margin: 4px 0; }
.meta { text-align: center; font-size: 11px; }
table { width: 100%; border-collapse: collapse; font-size: 12px; margin-top: 10px; }
th, td { text-align: left; padding: 2px 4px; }
td.amount, th.amount { text-align: right; }
.totals td { border-top: 1px dashed #000; }
.footer { text-align: center; font-size: 11px; margin-top: 14px; }
@media print { body { padding: 0; } }
</style>
</head>
<body>
<h1>{{.Settings.StoreName}}</h1>
<div class="meta">
{{if .Settings.AddressLine1}}{{.Settings.AddressLine1}}<br>{{end}}
{{if .Settings.AddressLine2}}{{.Settings.AddressLine2}}<br>{{end}}
{{if .Settings.Phone}}Tel: {{.Settings.Phone}}<br>{{end}}
{{if .Settings.VATNumber}}VAT: {{.Settings.VATNumber}}<br>{{end}}
{{if .Settings.ReceiptHeader}}<p>{{.Settings.ReceiptHeader}}</p>{{end}}
</div>
<div class="meta">
<strong>{{.Sale.InvoiceNo}}</strong> &middot; {{date .Sale.CreatedAt}}<br>
{{if .Sale.CustomerName}}Customer: {{.Sale.CustomerName}}<br>{{end}}
</div>
<table>
<tr><th>Item</th><th class="amount">Qty</th><th class="amount">Price</th><th class="amount">Total</th></tr>
{{range .Sale.Items}}
<tr><td>{{.Name}}</td><td class="amount">{{.Qty}}</td><td class="amount">{{money .SellPriceCents}}</td><td class="amount">{{money .TotalCents}}</td></tr>
{{end}}
<tr class="totals"><td colspan="3">Subtotal</td><td class="amount">{{money .Sale.SubtotalCents}}</td></tr>
{{if .Sale.DiscountCents}}<tr><td colspan="3">Discount</td><td class="amount">-{{money .Sale.DiscountCents}}</td></tr>{{end}}
<tr><td colspan="3"><strong>Total</strong></td><td class="amount"><strong>{{money .Sale.TotalCents}}</strong></td></tr>
<tr><td colspan="3">Paid ({{.Sale.PaymentMethod}})</td><td class="amount">{{money .Sale.PaidCents}}</td></tr>
{{if .Sale.DueCents}}<tr><td colspan="3">Due</td><td class="amount">{{money .Sale.DueCents}}</td></tr>{{end}}
</table>
<div class="footer">
Status: {{.Sale.PaymentStatus}}<br>
{{if .Settings.ReceiptFooter}}{{.Settings.ReceiptFooter}}{{else}}Thank you for your business{{end}}
</div>
<script>window.print()</script>
</body>
</html>
`))

var purchaseOrderTmpl = template.Must(template.New("voucher").Funcs(printFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Purchase Order {{.Order.BillNumber}}</title>
<style>
body { font-family: monospace; max-width: 560px; margin: 0 auto; padding: 12px; }
h1 { font-size: 16px; margin: 4px 0; }
table { width: 100%; border-collapse: collapse; font-size: 12px; margin-top: 10px; }
th, td { text-align: left; padding: 2px 4px; }
td.amount, th.amount { text-align: right; }
.totals td { border-top: 1px dashed #000; }
</style>
</head>
<body>
<h1>{{.Settings.StoreName}} &mdash; Purchase Order</h1>
<div>
Supplier: {{.Supplier.Name}}{{if .Supplier.ContactPerson}} ({{.Supplier.ContactPerson}}){{end}}<br>
{{if .Order.BillNumber}}Bill: {{.Order.BillNumber}}<br>{{end}}
Date: {{date .Order.CreatedAt}}<br>
Status: {{.Order.Status}}{{if .Order.IsReceived}} &middot; received{{end}}
</div>
<table>
<tr><th>Item</th><th class="amount">Qty</th><th class="amount">Unit cost</th><th class="amount">Total</th></tr>
{{range .Order.Items}}
<tr><td>{{.ProductName}}</td><td class="amount">{{.Qty}}</td><td class="amount">{{money .BuyPriceCents}}</td><td class="amount">{{money .TotalCents}}</td></tr>
{{end}}
<tr class="totals"><td colspan="3"><strong>Total</strong></td><td class="amount"><strong>{{money .Order.TotalCents}}</strong></td></tr>
<tr><td colspan="3">Paid</td><td class="amount">{{money .Order.PaidCents}}</td></tr>
<tr><td colspan="3">Due</td><td class="amount">{{money .Order.DueCents}}</td></tr>
</table>
<script>window.print()</script>
</body>
</html>
`))

func (api *API) handleSalePrint(w http.ResponseWriter, r *http.Request, id string) {
	sale, err := api.service.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	settings, err := api.service.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = invoiceTmpl.Execute(w, struct {
		Sale     domain.Sale
		Settings domain.ShopSettings
	}{sale, settings})
}

func (api *API) handlePurchaseOrderPrint(w http.ResponseWriter, r *http.Request, id string) {
	po, err := api.service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	supplier, err := api.service.GetSupplier(r.Context(), po.SupplierID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	settings, err := api.service.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = purchaseOrderTmpl.Execute(w, struct {
		Order    domain.PurchaseOrder
		Supplier domain.Supplier
		Settings domain.ShopSettings
	}{po, supplier, settings})
}

// salesReportToCSV flattens a report for spreadsheet import: one summary row,
// then per-bucket rows, then the payment method split.
func salesReportToCSV(report domain.SalesReport) string {
	var b strings.Builder

	b.WriteString("section,label,transactions,items,revenue,discount,profit,expenses,net\n")
	b.WriteString(strings.Join([]string{
		"summary",
		report.From + ".." + report.To,
		strconv.FormatInt(report.Transactions, 10),
		strconv.FormatInt(report.ItemCount, 10),
		formatCents(report.RevenueCents),
		formatCents(report.DiscountCents),
		formatCents(report.ProfitCents),
		formatCents(report.ExpenseCents),
		formatCents(report.NetCents),
	}, ",") + "\n")

	for _, bucket := range report.Buckets {
		b.WriteString(strings.Join([]string{
			"bucket",
			bucket.Label,
			strconv.FormatInt(bucket.Transactions, 10),
			strconv.FormatInt(bucket.ItemCount, 10),
			formatCents(bucket.RevenueCents),
			"",
			formatCents(bucket.ProfitCents),
			"",
			"",
		}, ",") + "\n")
	}

	for _, payment := range report.ByPayment {
		b.WriteString(strings.Join([]string{
			"payment",
			string(payment.Method),
			strconv.FormatInt(payment.Transactions, 10),
			"",
			formatCents(payment.TotalCents),
			"",
			"",
			"",
			"",
		}, ",") + "\n")
	}

	return b.String()
}
