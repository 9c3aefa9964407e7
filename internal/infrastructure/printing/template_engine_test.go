package printing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"33.4", "R$ 33,40"},
		{"999.999", "R$ 1.000,00"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"-15.5", "-R$ 15,50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBRL(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "123.456.789-09", formatDocument("12345678909"))
	assert.Equal(t, "11.222.333/0001-81", formatDocument("11222333000181"))
	assert.Equal(t, "123", formatDocument("123"))

	day := time.Date(2026, 3, 5, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "05/03/2026", formatDate(day))
	assert.Equal(t, "05/03/2026 14:07", formatDateTime(day))
	assert.Equal(t, "", formatDate(time.Time{}))

	assert.Equal(t, "Maria Silva", titleCase("MARIA SILVA"))
	assert.Equal(t, "Pago parcialmente", statusLabel("partial"))
	assert.Equal(t, "unknown", statusLabel("unknown"))
	assert.Equal(t, "Crediário", methodLabel("installment"))
}

func TestTemplateEngine_Render(t *testing.T) {
	e := NewTemplateEngine()

	out, err := e.Render("t", `<p>{{brl .}}</p>`, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "<p>R$ 10,00</p>", out)

	_, err = e.Render("empty", "  ", nil)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)

	_, err = e.Render("bad", "{{if}}", nil)
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)

	_, err = e.Render("exec", "{{.Missing.Field}}", struct{}{})
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeRenderFailed, re.Code)
}

func TestTemplateEngine_WithFuncs(t *testing.T) {
	e := NewTemplateEngine(WithFuncs(map[string]any{"shout": func(s string) string { return s + "!" }}))
	out, err := e.Render("t", `{{shout "oi"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "oi!", out)
}

func TestTemplateEngine_CarneHTML(t *testing.T) {
	e := NewTemplateEngine()
	doc := &CarneDocument{
		Issuer:     Issuer{Name: "Ana Modas", Document: "11222333000181"},
		Customer:   Party{Name: "maria souza", Document: "12345678909"},
		SaleNumber: "VD-20260504-00001",
		SoldAt:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		Total:      decimal.NewFromInt(300),
		IssuedAt:   time.Date(2026, 5, 4, 10, 5, 0, 0, time.UTC),
		Slips: []Slip{
			{Label: "1/2", DueDate: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(150),
				TotalPaid: decimal.NewFromInt(50), Remaining: decimal.NewFromInt(100), Status: "partial", PixPayload: "000201PIX"},
			{Label: "2/2", DueDate: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(150),
				TotalPaid: decimal.Zero, Remaining: decimal.NewFromInt(150), Status: "pending"},
		},
	}

	out, err := e.CarneHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "CNPJ 11.222.333/0001-81")
	assert.Contains(t, out, "Cliente: Maria Souza (123.456.789-09)")
	assert.Contains(t, out, "Parcela 1/2")
	assert.Contains(t, out, "Vencimento: 03/06/2026")
	assert.Contains(t, out, "Pago: R$ 50,00. Restante: R$ 100,00")
	assert.Contains(t, out, "Situação: Em aberto")
	assert.Contains(t, out, "PIX copia e cola: 000201PIX")
	assert.Equal(t, 1, countOccurrences(out, "PIX copia e cola"))
}

func TestTemplateEngine_ReceiptHTML(t *testing.T) {
	e := NewTemplateEngine()
	doc := &ReceiptDocument{
		Issuer:     Issuer{Name: "Ana Modas", Phone: "(81) 3333-4444"},
		SaleNumber: "VD-20260504-00002",
		SoldAt:     time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC),
		Lines: []ReceiptLine{
			{Code: "CAM-01", Name: "Camiseta", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Subtotal: decimal.NewFromInt(100)},
		},
		Subtotal:      decimal.NewFromInt(100),
		Discount:      decimal.NewFromInt(10),
		Total:         decimal.NewFromInt(90),
		PaymentMethod: "pix",
	}

	out, err := e.ReceiptHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "ANA MODAS")
	assert.Contains(t, out, "2,00 x R$ 50,00")
	assert.Contains(t, out, "-R$ 10,00")
	assert.Contains(t, out, "<strong>R$ 90,00</strong>")
	assert.Contains(t, out, "PIX")
	assert.NotContains(t, out, "Cliente:")
	assert.NotContains(t, out, "CANCELADA")
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
