package document

import (
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// FormatMoney renders an amount the way Chilean documents show it: pesos
// without decimals ("$ 1.234.567"), foreign currencies with two.
func FormatMoney(amount float64, cur pricing.Currency) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	switch cur {
	case pricing.USD:
		return "US$ " + groupDecimal(amount, 2)
	case pricing.EUR:
		return "€ " + groupDecimal(amount, 2)
	default:
		return "$ " + groupDecimal(amount, 0)
	}
}

// FormatCLP renders a peso amount.
func FormatCLP(amount float64) string {
	return FormatMoney(amount, pricing.CLP)
}

func groupDecimal(amount float64, decimals int) string {
	scale := math.Pow10(decimals)
	rounded := math.Round(amount*scale) / scale
	neg := rounded < 0
	if neg {
		rounded = -rounded
	}

	s := strconv.FormatFloat(rounded, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if decimals > 0 {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// formatQuantity drops trailing zeros from quantities.
func formatQuantity(q float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(q, 'f', -1, 64), ".", ",")
}

// formatPercent renders a rate such as 0.19 as "19%".
func formatPercent(rate float64) string {
	return strconv.FormatFloat(math.Round(rate*10000)/100, 'f', -1, 64) + "%"
}
