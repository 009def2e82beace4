package pricing

import (
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	rates := Rates{CLP: 1, USD: 900, EUR: 1000}

	tests := []struct {
		name   string
		amount float64
		from   Currency
		to     Currency
		rates  Rates
		want   float64
	}{
		{"same currency", 123.45, USD, USD, rates, 123.45},
		{"usd to clp", 10, USD, CLP, rates, 9000},
		{"clp to eur", 5000, CLP, EUR, rates, 5},
		{"eur to usd", 9, EUR, USD, rates, 10},
		{"missing rate reads as base", 10, USD, CLP, Rates{CLP: 1}, 10},
		{"nan rate reads as base", 10, EUR, CLP, Rates{EUR: math.NaN()}, 10},
		{"zero rate reads as base", 10, EUR, CLP, Rates{EUR: 0}, 10},
		{"nan amount", math.NaN(), USD, CLP, rates, 0},
		{"inf amount", math.Inf(1), USD, CLP, rates, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.amount, tt.from, tt.to, tt.rates)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Convert(%v, %s, %s) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	rates := Rates{CLP: 1, USD: 943.21, EUR: 1017.8}
	for _, a := range Currencies {
		for _, b := range Currencies {
			for _, x := range []float64{0.01, 1, 99.99, 1234567.89} {
				got := Convert(Convert(x, a, b, rates), b, a, rates)
				if math.Abs(got-x) > 1e-9*math.Max(1, x) {
					t.Fatalf("round trip %s->%s->%s of %v = %v", a, b, a, x, got)
				}
			}
		}
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		raw  string
		want Currency
		ok   bool
	}{
		{"clp", CLP, true},
		{" USD ", USD, true},
		{"Eur", EUR, true},
		{"UF", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCurrency(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCurrency(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
