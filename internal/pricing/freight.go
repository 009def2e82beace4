package pricing

import (
	"math"
	"strings"
)

// SupplierInvoiceDescription is the conventional description of the
// international freight placeholder that mirrors the supplier invoice.
const SupplierInvoiceDescription = "Factura Proveedor"

// FreightItem is one itemized logistics cost.
type FreightItem struct {
	Description    string   `json:"descripcion"`
	SupplierName   string   `json:"proveedor,omitempty"`
	SupplierTaxID  string   `json:"rut_proveedor,omitempty"`
	Currency       Currency `json:"moneda,omitempty"`
	EstimatedValue float64  `json:"valor_estimado"`
	// SupplierInvoice marks the placeholder whose value is derived from the
	// quote's cost of goods instead of being entered.
	SupplierInvoice bool `json:"factura_proveedor,omitempty"`
}

// IsSupplierInvoiceDescription matches descriptions naming the supplier invoice,
// ignoring case and surrounding whitespace.
func IsSupplierInvoiceDescription(desc string) bool {
	d := strings.ToLower(strings.TrimSpace(desc))
	return strings.Contains(d, "factura") && strings.Contains(d, "proveedor")
}

// FreightType selects which pool is charged in the as-priced totals.
type FreightType string

const (
	FreightInternational FreightType = "internacional"
	FreightNational      FreightType = "nacional"
	FreightBoth          FreightType = "ambos"
	FreightNone          FreightType = "ninguno"
)

// ParseFreightType resolves a freight type, defaulting to international.
func ParseFreightType(raw string) FreightType {
	switch FreightType(strings.ToLower(strings.TrimSpace(raw))) {
	case FreightNational:
		return FreightNational
	case FreightBoth:
		return FreightBoth
	case FreightNone:
		return FreightNone
	default:
		return FreightInternational
	}
}

// FreightPools aggregates itemized freight into distributable pools.
type FreightPools struct {
	// InternationalItems are the items with effective values; the supplier
	// invoice placeholder carries the rounded cost of goods.
	InternationalItems []FreightItem `json:"items_internacional"`
	NationalItems      []FreightItem `json:"items_nacional"`
	// International excludes the supplier invoice placeholder.
	International float64 `json:"internacional"`
	// InternationalTotal includes the placeholder value.
	InternationalTotal   float64 `json:"internacional_total"`
	National             float64 `json:"nacional"`
	SupplierInvoiceValue float64 `json:"factura_proveedor"`
	// Factor is InternationalTotal / SupplierInvoiceValue, 0 without a placeholder.
	Factor float64 `json:"factor"`
}

// Pool returns the amount distributed for the given freight type.
func (p FreightPools) Pool(t FreightType) float64 {
	switch t {
	case FreightNational:
		return p.National
	case FreightBoth:
		return p.International + p.National
	case FreightNone:
		return 0
	default:
		return p.International
	}
}

// BuildPools sums the international and national freight items. Item values
// are converted into the display currency. The supplier invoice placeholder is
// overridden with round(totalCostOfGoods) and kept out of the international pool.
func BuildPools(intl, national []FreightItem, totalCostOfGoods float64, display Currency, rates Rates) FreightPools {
	invoiceValue := math.Round(nonNegative(totalCostOfGoods))

	p := FreightPools{
		InternationalItems: make([]FreightItem, 0, len(intl)),
		NationalItems:      make([]FreightItem, 0, len(national)),
	}

	hasInvoice := false
	for _, it := range intl {
		if it.SupplierInvoice {
			it.EstimatedValue = invoiceValue
			it.Currency = display
			hasInvoice = true
			p.InternationalItems = append(p.InternationalItems, it)
			continue
		}
		p.International += itemValue(it, display, rates)
		p.InternationalItems = append(p.InternationalItems, it)
	}
	for _, it := range national {
		p.National += itemValue(it, display, rates)
		p.NationalItems = append(p.NationalItems, it)
	}

	p.International = math.Max(p.International, 0)
	p.National = math.Max(p.National, 0)
	p.InternationalTotal = p.International
	if hasInvoice {
		p.SupplierInvoiceValue = invoiceValue
		p.InternationalTotal += invoiceValue
		if invoiceValue > 0 {
			p.Factor = p.InternationalTotal / invoiceValue
		}
	}
	return p
}

func itemValue(it FreightItem, display Currency, rates Rates) float64 {
	cur := it.Currency
	if cur == "" {
		cur = display
	}
	return Convert(nonNegative(it.EstimatedValue), cur, display, rates)
}
