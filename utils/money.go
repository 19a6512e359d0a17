package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber renders amount with places fraction digits, "." as decimal
// separator and a space between thousands groups: 1250000 -> "1 250 000".
func FormatNumber(amount decimal.Decimal, places int) string {
	if places < 0 {
		places = 0
	}
	s := amount.StringFixed(int32(places))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}
