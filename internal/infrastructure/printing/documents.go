package printing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuer is the company printed on the document header
type Issuer struct {
	Name     string
	Document string
	Phone    string
	PixKey   string
}

// Party is the buying customer
type Party struct {
	Name     string
	Document string
	Phone    string
	Address  string
}

// Slip is one detachable installment page of a carnê
type Slip struct {
	Label      string // "2/6"
	DueDate    time.Time
	Amount     decimal.Decimal
	TotalPaid  decimal.Decimal
	Remaining  decimal.Decimal
	Status     string
	PixPayload string
}

// CarneDocument is the installment booklet of one sale
type CarneDocument struct {
	Issuer     Issuer
	Customer   Party
	SaleNumber string
	SoldAt     time.Time
	Total      decimal.Decimal
	Slips      []Slip
	IssuedAt   time.Time
}

// ReceiptLine is one sold item
type ReceiptLine struct {
	Code      string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// ReceiptDocument is the counter receipt of one sale
type ReceiptDocument struct {
	Issuer        Issuer
	Customer      *Party
	SaleNumber    string
	SoldAt        time.Time
	Lines         []ReceiptLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	Slips         []Slip
	Cancelled     bool
}

const carneTemplate = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="UTF-8"><title>Carnê {{.SaleNumber}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;font-size:11px;margin:0}
.slip{border:1px dashed #555;padding:8px 12px;margin-bottom:8px;page-break-inside:avoid}
.slip h2{font-size:13px;margin:0 0 4px}
.row{display:flex;justify-content:space-between}
.paid{color:#2e7d32}.overdue{color:#c62828}
.pix{font-family:monospace;font-size:8px;word-break:break-all;margin-top:4px}
</style></head><body>
<header>
<h1>{{.Issuer.Name}}</h1>
{{with .Issuer.Document}}<div>CNPJ {{document .}}</div>{{end}}
<div>Venda {{.SaleNumber}} de {{date .SoldAt}}. Total {{brl .Total}}</div>
<div>Cliente: {{title .Customer.Name}}{{with .Customer.Document}} ({{document .}}){{end}}</div>
</header>
{{range .Slips}}
<section class="slip {{.Status}}">
<h2>Parcela {{.Label}}</h2>
<div class="row"><span>Vencimento: {{date .DueDate}}</span><span>Valor: {{brl .Amount}}</span></div>
<div class="row"><span>Situação: {{statusLabel .Status}}</span>
{{if isPositive .TotalPaid}}<span>Pago: {{brl .TotalPaid}}. Restante: {{brl .Remaining}}</span>{{end}}</div>
<div class="row"><span>{{$.Customer.Name}}</span><span>{{$.SaleNumber}}</span></div>
{{with .PixPayload}}<div class="pix">PIX copia e cola: {{.}}</div>{{end}}
</section>
{{end}}
<footer>Emitido em {{dateTime .IssuedAt}}</footer>
</body></html>`

const receiptTemplate = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="UTF-8"><title>Venda {{.SaleNumber}}</title>
<style>
body{font-family:monospace;font-size:10px;width:72mm;margin:0 auto}
table{width:100%;border-collapse:collapse}td.r{text-align:right}
hr{border:0;border-top:1px dashed #000}
</style></head><body>
<div><strong>{{upper .Issuer.Name}}</strong></div>
{{with .Issuer.Document}}<div>CNPJ {{document .}}</div>{{end}}
{{with .Issuer.Phone}}<div>Tel {{.}}</div>{{end}}
<hr>
<div>Venda {{.SaleNumber}} {{dateTime .SoldAt}}</div>
{{if .Cancelled}}<div><strong>VENDA CANCELADA</strong></div>{{end}}
{{with .Customer}}<div>Cliente: {{.Name}}</div>{{end}}
<hr>
<table>
{{range .Lines}}<tr><td colspan="2">{{.Code}} {{.Name}}</td></tr>
<tr><td>{{number .Quantity}} x {{brl .UnitPrice}}</td><td class="r">{{brl .Subtotal}}</td></tr>
{{end}}</table>
<hr>
<table>
<tr><td>Subtotal</td><td class="r">{{brl .Subtotal}}</td></tr>
{{if isPositive .Discount}}<tr><td>Desconto</td><td class="r">-{{brl .Discount}}</td></tr>{{end}}
<tr><td><strong>Total</strong></td><td class="r"><strong>{{brl .Total}}</strong></td></tr>
<tr><td>Pagamento</td><td class="r">{{methodLabel .PaymentMethod}}</td></tr>
</table>
{{if .Slips}}<hr><div>Parcelas</div><table>
{{range .Slips}}<tr><td>{{.Label}} {{date .DueDate}}</td><td class="r">{{brl .Amount}}</td></tr>{{end}}
</table>{{end}}
</body></html>`

// CarneHTML renders the booklet of a credit sale
func (e *TemplateEngine) CarneHTML(doc *CarneDocument) (string, error) {
	return e.Render("carne", carneTemplate, doc)
}

// ReceiptHTML renders a counter receipt
func (e *TemplateEngine) ReceiptHTML(doc *ReceiptDocument) (string, error) {
	return e.Render("receipt", receiptTemplate, doc)
}
