package valueobject

import (
	"errors"
	"strings"
	"unicode"
)

// DocumentKind distinguishes Brazilian individual (CPF) from company (CNPJ) tax ids
type DocumentKind string

const (
	DocumentCPF  DocumentKind = "CPF"
	DocumentCNPJ DocumentKind = "CNPJ"
)

var ErrInvalidDocument = errors.New("invalid CPF/CNPJ")

// Document is a validated CPF or CNPJ holding digits only
type Document struct {
	digits string
	kind   DocumentKind
}

// ParseDocument strips punctuation and validates check digits
func ParseDocument(raw string) (Document, error) {
	digits := OnlyDigits(raw)
	switch len(digits) {
	case 11:
		if !validCPF(digits) {
			return Document{}, ErrInvalidDocument
		}
		return Document{digits: digits, kind: DocumentCPF}, nil
	case 14:
		if !validCNPJ(digits) {
			return Document{}, ErrInvalidDocument
		}
		return Document{digits: digits, kind: DocumentCNPJ}, nil
	default:
		return Document{}, ErrInvalidDocument
	}
}

// IsValidDocument reports whether raw is a valid CPF or CNPJ
func IsValidDocument(raw string) bool {
	_, err := ParseDocument(raw)
	return err == nil
}

func (d Document) String() string     { return d.digits }
func (d Document) Kind() DocumentKind { return d.kind }
func (d Document) IsZero() bool       { return d.digits == "" }

// Formatted returns 000.000.000-00 or 00.000.000/0000-00
func (d Document) Formatted() string {
	s := d.digits
	switch d.kind {
	case DocumentCPF:
		return s[0:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:11]
	case DocumentCNPJ:
		return s[0:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:14]
	}
	return s
}

// OnlyDigits drops every non-digit rune
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

func validCPF(s string) bool {
	if allSame(s) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(s[i]-'0') * (n + 1 - i)
		}
		dv := (sum * 10) % 11
		if dv == 10 {
			dv = 0
		}
		if dv != int(s[n]-'0') {
			return false
		}
	}
	return true
}

func validCNPJ(s string) bool {
	if allSame(s) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for _, n := range []int{12, 13} {
		sum := 0
		w := weights[13-n:]
		for i := 0; i < n; i++ {
			sum += int(s[i]-'0') * w[i]
		}
		dv := sum % 11
		if dv < 2 {
			dv = 0
		} else {
			dv = 11 - dv
		}
		if dv != int(s[n]-'0') {
			return false
		}
	}
	return true
}
