// Package currency renders prices for display.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

type style struct {
	prefix   string
	thousand string
	decimal  string
	places   int32
}

var styles = map[string]style{
	"IDR": {prefix: "IDR ", thousand: ".", decimal: ",", places: 0},
	"USD": {prefix: "$", thousand: ",", decimal: ".", places: 2},
	"EUR": {prefix: "€", thousand: ".", decimal: ",", places: 2},
	"SGD": {prefix: "S$", thousand: ",", decimal: ".", places: 2},
}

// Format renders amount in the conventions of the currency code. Unknown
// codes are prefixed with the code and use two decimal places.
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	s, ok := styles[code]
	if !ok {
		s = style{prefix: code + " ", thousand: ",", decimal: ".", places: 2}
	}

	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(s.places)

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	out := s.prefix + addThousandsSeparator(intPart, s.thousand)
	if fracPart != "" {
		out += s.decimal + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

func FormatIDR(amount decimal.Decimal) string {
	return Format(amount, "IDR")
}

func addThousandsSeparator(digits, sep string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
