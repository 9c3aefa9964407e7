package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders html/template documents with pt-BR formatting helpers
type TemplateEngine struct {
	funcMap template.FuncMap
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithFuncs adds or overrides template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{
		funcMap: template.FuncMap{
			"brl":         FormatBRL,
			"number":      formatNumber,
			"date":        formatDate,
			"dateTime":    formatDateTime,
			"title":       titleCase,
			"upper":       strings.ToUpper,
			"document":    formatDocument,
			"statusLabel": statusLabel,
			"methodLabel": methodLabel,
			"isPositive":  func(d decimal.Decimal) bool { return d.IsPositive() },
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render executes content with data
func (e *TemplateEngine) Render(name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template "+name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// FormatBRL renders 1234.5 as "R$ 1.234,50"
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "R$ " + formatNumber(d)
}

// formatNumber renders 1234.5 as "1.234,50"
func formatNumber(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

func titleCase(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(s))
}

// formatDocument masks CPF (11 digits) and CNPJ (14 digits)
func formatDocument(doc string) string {
	switch len(doc) {
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", doc[:3], doc[3:6], doc[6:9], doc[9:])
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", doc[:2], doc[2:5], doc[5:8], doc[8:12], doc[12:])
	default:
		return doc
	}
}

var statusLabels = map[string]string{
	"pending":   "Em aberto",
	"partial":   "Pago parcialmente",
	"paid":      "Pago",
	"overdue":   "Vencida",
	"cancelled": "Cancelada",
	"completed": "Concluída",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

var methodLabels = map[string]string{
	"cash":        "Dinheiro",
	"debit_card":  "Cartão de débito",
	"credit_card": "Cartão de crédito",
	"pix":         "PIX",
	"installment": "Crediário",
	"transfer":    "Transferência",
}

func methodLabel(method string) string {
	if label, ok := methodLabels[method]; ok {
		return label
	}
	return method
}
