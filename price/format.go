package price

import (
	"strconv"
	"strings"

	"github.com/poiesic/shopit/core"
)

// Format renders a price in major units for display, e.g. "$1,299.00".
// This is the only place minor units are converted.
func Format(p core.Price, currency string) string {
	minor, ok := p.Minor()
	if !ok {
		return ""
	}

	negative := minor < 0
	abs := uint64(minor)
	if negative {
		abs = -abs
	}
	major := strconv.FormatUint(abs/100, 10)
	cents := abs % 100

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(symbol(currency))
	b.WriteString(groupThousands(major))
	b.WriteByte('.')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatUint(cents, 10))
	return b.String()
}

func symbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "", "USD", "CAD", "AUD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "JPY":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
