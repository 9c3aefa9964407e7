package pix

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldASCII strips accents ("São João" becomes "Sao Joao"), drops anything
// outside printable ASCII, collapses spaces and truncates to limit bytes.
func FoldASCII(s string, limit int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if r >= 0x20 && r <= 0x7E {
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if limit > 0 && len(out) > limit {
		out = strings.TrimSpace(out[:limit])
	}
	return out
}
