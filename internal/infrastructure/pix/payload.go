// Package pix builds static PIX BR Code payloads (EMV merchant presented
// mode) and renders them as QR code images.
package pix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EMV field identifiers used by the BR Code
const (
	idPayloadFormat       = "00"
	idPointOfInitiation   = "01"
	idMerchantAccount     = "26"
	idMerchantCategory    = "52"
	idTransactionCurrency = "53"
	idTransactionAmount   = "54"
	idCountryCode         = "58"
	idMerchantName        = "59"
	idMerchantCity        = "60"
	idAdditionalData      = "62"
	idCRC16               = "63"

	idAccountGUI         = "00"
	idAccountKey         = "01"
	idAccountDescription = "02"
	idAdditionalTxID     = "05"

	pixGUI          = "br.gov.bcb.pix"
	currencyBRL     = "986"
	countryBR       = "BR"
	singleUse       = "12"
	maxNameLen      = 25
	maxCityLen      = 15
	maxTxIDLen      = 25
	maxKeyLen       = 77
	maxFieldLen     = 99
	emptyTxID       = "***"
	noCategoryGiven = "0000"
)

// Charge is the data printed into a payload
type Charge struct {
	PixKey       string
	MerchantName string
	MerchantCity string
	Amount       decimal.Decimal
	TxID         string
	Description  string
}

var (
	ErrMissingKey    = errors.New("pix: key is required")
	ErrKeyTooLong    = errors.New("pix: key exceeds 77 characters")
	ErrMissingName   = errors.New("pix: merchant name is required")
	ErrMissingCity   = errors.New("pix: merchant city is required")
	ErrInvalidAmount = errors.New("pix: amount must be positive")
	ErrInvalidTxID   = errors.New("pix: txid must have up to 25 letters or digits")
)

// BuildPayload assembles the copy-and-paste BR Code string including its CRC.
// Merchant name and city are folded to ASCII and truncated to their limits.
func BuildPayload(c Charge) (string, error) {
	key := strings.TrimSpace(c.PixKey)
	switch {
	case key == "":
		return "", ErrMissingKey
	case len(key) > maxKeyLen:
		return "", ErrKeyTooLong
	}
	name := FoldASCII(c.MerchantName, maxNameLen)
	if name == "" {
		return "", ErrMissingName
	}
	city := FoldASCII(c.MerchantCity, maxCityLen)
	if city == "" {
		return "", ErrMissingCity
	}
	if !c.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	txid := c.TxID
	if txid == "" {
		txid = emptyTxID
	} else if !isTxID(txid) {
		return "", ErrInvalidTxID
	}

	account := field(idAccountGUI, pixGUI) + field(idAccountKey, key)
	if desc := FoldASCII(c.Description, maxFieldLen); desc != "" {
		// the description only fits in what the key leaves of the 99 characters
		room := maxFieldLen - len(account) - 4
		if room > 0 {
			if len(desc) > room {
				desc = strings.TrimSpace(desc[:room])
			}
			account += field(idAccountDescription, desc)
		}
	}

	var b strings.Builder
	b.WriteString(field(idPayloadFormat, "01"))
	b.WriteString(field(idPointOfInitiation, singleUse))
	b.WriteString(field(idMerchantAccount, account))
	b.WriteString(field(idMerchantCategory, noCategoryGiven))
	b.WriteString(field(idTransactionCurrency, currencyBRL))
	b.WriteString(field(idTransactionAmount, c.Amount.StringFixed(2)))
	b.WriteString(field(idCountryCode, countryBR))
	b.WriteString(field(idMerchantName, name))
	b.WriteString(field(idMerchantCity, city))
	b.WriteString(field(idAdditionalData, field(idAdditionalTxID, txid)))
	b.WriteString(idCRC16 + "04")

	payload := b.String()
	return payload + fmt.Sprintf("%04X", CRC16(payload)), nil
}

// field renders ID + two digit length + value
func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func isTxID(s string) bool {
	if len(s) > maxTxIDLen {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// CRC16 is CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF
func CRC16(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
