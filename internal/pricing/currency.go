package pricing

import (
	"math"
	"strings"
)

// Currency is one of the supported ISO currency codes.
type Currency string

const (
	CLP Currency = "CLP"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Currencies lists the supported codes in display order.
var Currencies = []Currency{CLP, USD, EUR}

// ParseCurrency resolves a case-insensitive currency code.
func ParseCurrency(raw string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	switch c {
	case CLP, USD, EUR:
		return c, true
	}
	return "", false
}

// Rates maps a currency to its value expressed in the base currency (CLP = 1).
type Rates map[Currency]float64

// DefaultRates is the fallback table used when no live rates are available.
func DefaultRates() Rates {
	return Rates{CLP: 1, USD: 900, EUR: 1000}
}

// Rate returns the rate for c. Missing, non-finite or non-positive entries read as 1.
func (r Rates) Rate(c Currency) float64 {
	v, ok := r[c]
	if !ok || !isFinite(v) || v <= 0 {
		return 1
	}
	return v
}

// Convert converts amount from one currency to another through the base currency.
func Convert(amount float64, from, to Currency, rates Rates) float64 {
	if !isFinite(amount) {
		return 0
	}
	if from == to {
		return amount
	}
	return amount * rates.Rate(from) / rates.Rate(to)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
