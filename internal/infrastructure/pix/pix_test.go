package pix

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x29B1), CRC16("123456789"))

	// sample payload published with the BR Code manual
	sample := "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-426655440000" +
		"5204000053039865802BR5913Fulano de Tal6008BRASILIA62070503***6304"
	assert.Equal(t, uint16(0x1D3D), CRC16(sample))
}

func TestBuildPayload(t *testing.T) {
	payload, err := BuildPayload(Charge{
		PixKey:       "loja@example.com",
		MerchantName: "Ana Modas & Cia",
		MerchantCity: "São Paulo",
		Amount:       decimal.RequireFromString("33.40"),
		TxID:         "RP123ABC",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, "000201010212"))
	assert.Contains(t, payload, "26380014br.gov.bcb.pix0116loja@example.com")
	assert.Contains(t, payload, "520400005303986540533.405802BR")
	assert.Contains(t, payload, "5915Ana Modas & Cia6009Sao Paulo")
	assert.Contains(t, payload, "62120508RP123ABC")

	body, crc := payload[:len(payload)-4], payload[len(payload)-4:]
	assert.True(t, strings.HasSuffix(body, "6304"))
	assert.Equal(t, crc, strings.ToUpper(crc))
	assert.Equal(t, CRC16(body), parseHex(t, crc))
}

func TestBuildPayload_DescriptionAndDefaults(t *testing.T) {
	payload, err := BuildPayload(Charge{
		PixKey:       "11222333000181",
		MerchantName: "Comercial de Roupas e Calçados Nordeste Ltda",
		MerchantCity: "Feira de Santana",
		Amount:       decimal.NewFromInt(100),
		Description:  "Parcela 2/6",
	})
	require.NoError(t, err)

	assert.Contains(t, payload, "0211Parcela 2/6")
	assert.Contains(t, payload, "5925Comercial de Roupas e Cal")
	assert.Contains(t, payload, "6015Feira de Santan")
	assert.Contains(t, payload, "5406100.00")
	assert.Contains(t, payload, "62070503***")
}

func TestBuildPayload_Validation(t *testing.T) {
	base := Charge{PixKey: "k@x.com", MerchantName: "Loja", MerchantCity: "Recife", Amount: decimal.NewFromInt(1)}
	tests := []struct {
		name   string
		mutate func(*Charge)
		want   error
	}{
		{"no key", func(c *Charge) { c.PixKey = " " }, ErrMissingKey},
		{"long key", func(c *Charge) { c.PixKey = strings.Repeat("a", 78) }, ErrKeyTooLong},
		{"name without ascii", func(c *Charge) { c.MerchantName = "☕" }, ErrMissingName},
		{"no city", func(c *Charge) { c.MerchantCity = "" }, ErrMissingCity},
		{"zero amount", func(c *Charge) { c.Amount = decimal.Zero }, ErrInvalidAmount},
		{"bad txid", func(c *Charge) { c.TxID = "abc-123" }, ErrInvalidTxID},
		{"long txid", func(c *Charge) { c.TxID = strings.Repeat("A", 26) }, ErrInvalidTxID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			_, err := BuildPayload(c)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "Sao Joao", FoldASCII("  São   João ", 0))
	assert.Equal(t, "ACUCAR", FoldASCII("AÇÚCAR", 0))
	assert.Equal(t, "Cafe", FoldASCII("Café☕", 0))
	assert.Equal(t, "Feira", FoldASCII("Feira de Santana", 6))
	assert.Equal(t, "", FoldASCII("☕", 10))
}

func TestGenerator(t *testing.T) {
	g, err := NewGenerator(7, 256)
	require.NoError(t, err)

	a, b := g.NextTxID(), g.NextTxID()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "RP"))
	assert.True(t, isTxID(a))

	code, err := g.Generate(Charge{
		PixKey: "loja@example.com", MerchantName: "Loja", MerchantCity: "Natal",
		Amount: decimal.RequireFromString("12.34"),
	})
	require.NoError(t, err)
	assert.Contains(t, code.Payload, code.TxID)

	img, err := png.Decode(bytes.NewReader(code.PNG))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())

	_, err = NewGenerator(4096, 0)
	assert.Error(t, err)
}

func parseHex(t *testing.T, s string) uint16 {
	t.Helper()
	var v uint16
	for _, r := range s {
		v <<= 4
		switch {
		case r >= '0' && r <= '9':
			v |= uint16(r - '0')
		case r >= 'A' && r <= 'F':
			v |= uint16(r-'A') + 10
		default:
			t.Fatalf("invalid hex digit %q", r)
		}
	}
	return v
}
