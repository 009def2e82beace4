package pricing

import "testing"

func TestIsSupplierInvoiceDescription(t *testing.T) {
	tests := []struct {
		desc string
		want bool
	}{
		{"Factura Proveedor", true},
		{"  factura proveedor  ", true},
		{"FACTURA DEL PROVEEDOR", true},
		{"Factura", false},
		{"Flete proveedor", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSupplierInvoiceDescription(tt.desc); got != tt.want {
			t.Errorf("IsSupplierInvoiceDescription(%q) = %v, want %v", tt.desc, got, tt.want)
		}
	}
}

func TestBuildPools_SupplierInvoiceOverride(t *testing.T) {
	intl := []FreightItem{
		{Description: "Factura Proveedor", EstimatedValue: 1, SupplierInvoice: true},
		{Description: "Agente de aduana", EstimatedValue: 150},
		{Description: "Flete aéreo", EstimatedValue: 350},
	}
	national := []FreightItem{
		{Description: "Despacho Santiago", EstimatedValue: 60},
		{Description: "Bodegaje", EstimatedValue: 40},
	}

	p := BuildPools(intl, national, 4999.6, CLP, DefaultRates())

	nearlyEqual(t, "international", p.International, 500)
	nearlyEqual(t, "supplier invoice", p.SupplierInvoiceValue, 5000)
	nearlyEqual(t, "international total", p.InternationalTotal, 5500)
	nearlyEqual(t, "factor", p.Factor, 1.1)
	nearlyEqual(t, "national", p.National, 100)
	nearlyEqual(t, "effective placeholder", p.InternationalItems[0].EstimatedValue, 5000)
}

func TestBuildPools_EmptyListsAreZero(t *testing.T) {
	p := BuildPools(nil, nil, 1000, CLP, DefaultRates())

	nearlyEqual(t, "international", p.International, 0)
	nearlyEqual(t, "national", p.National, 0)
	nearlyEqual(t, "factor", p.Factor, 0)
	nearlyEqual(t, "supplier invoice", p.SupplierInvoiceValue, 0)
}

func TestBuildPools_ConvertsItemCurrency(t *testing.T) {
	intl := []FreightItem{{Description: "Flete", Currency: USD, EstimatedValue: 2}}

	p := BuildPools(intl, nil, 0, CLP, Rates{CLP: 1, USD: 900, EUR: 1000})

	nearlyEqual(t, "international", p.International, 1800)
}

func TestBuildPools_PoolSelection(t *testing.T) {
	p := FreightPools{International: 30, National: 12}

	nearlyEqual(t, "international", p.Pool(FreightInternational), 30)
	nearlyEqual(t, "national", p.Pool(FreightNational), 12)
	nearlyEqual(t, "both", p.Pool(FreightBoth), 42)
	nearlyEqual(t, "none", p.Pool(FreightNone), 0)
}

func TestNormalize_FlagsSupplierInvoiceOnlyInInternationalList(t *testing.T) {
	q := Normalize(QuoteInput{
		InternationalFreight: []FreightItem{{Description: "Factura Proveedor"}},
		NationalFreight:      []FreightItem{{Description: "Factura Proveedor", EstimatedValue: 10}},
	})

	if !q.InternationalFreight[0].SupplierInvoice {
		t.Fatalf("expected international placeholder to be flagged")
	}
	if q.NationalFreight[0].SupplierInvoice {
		t.Fatalf("national items never act as the placeholder")
	}
}

func TestNormalize_ResolvesLineDefaults(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	q := Normalize(QuoteInput{
		InputCurrency: "usd",
		MarginPercent: 15,
		Lines: []LineInput{
			{Name: " Válvula ", Quantity: nan, UnitCost: -4},
			{ID: "x", Currency: "eur", Quantity: 2, UnitCost: 10, MarginPercent: ptr(30), FinancingCostPercent: ptr(5)},
		},
	})

	if q.DisplayCurrency != USD {
		t.Fatalf("display currency = %q, want USD", q.DisplayCurrency)
	}
	nearlyEqual(t, "vat", q.VATRate, DefaultVATRate)

	first := q.Lines[0]
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}
	if first.Name != "Válvula" || first.Currency != USD {
		t.Fatalf("unexpected first line: %+v", first)
	}
	nearlyEqual(t, "quantity", first.Quantity, 0)
	nearlyEqual(t, "unit cost", first.UnitCost, 0)
	nearlyEqual(t, "margin", first.MarginPercent, 15)

	second := q.Lines[1]
	if second.ID != "x" || second.Currency != EUR {
		t.Fatalf("unexpected second line: %+v", second)
	}
	nearlyEqual(t, "margin override", second.MarginPercent, 30)
	nearlyEqual(t, "financing", second.FinancingCostPercent, 5)
}
