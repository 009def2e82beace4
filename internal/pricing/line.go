package pricing

// Line is a normalized quote line. All fields are finite and defaults are resolved.
type Line struct {
	ID                     string
	ProductID              string
	Name                   string
	Description            string
	Quantity               float64
	Currency               Currency
	UnitCost               float64
	MarginPercent          float64
	FinancingCostPercent   float64
	FreightOverridePercent float64
	SupplierName           string
	SupplierTaxID          string
	LeadTimeDays           int
}

// TotalPercent is the stacked margin and financing percentage.
func (l Line) TotalPercent() float64 {
	return l.MarginPercent + l.FinancingCostPercent
}

// HasFreightOverride reports whether the line carries an explicit freight share.
func (l Line) HasFreightOverride() bool {
	return l.FreightOverridePercent != 0
}

// LinePricing contains the cost-side and sell-side figures of one line.
type LinePricing struct {
	CostInDisplayCurrency float64 `json:"cost_in_display_currency"`
	NetBeforeMargin       float64 `json:"net_before_margin"`
	VATBeforeMargin       float64 `json:"vat_before_margin"`
	TotalBeforeMargin     float64 `json:"total_before_margin"`
	TotalPercent          float64 `json:"total_percent"`
	NetSell               float64 `json:"net_sell"`
	VATSell               float64 `json:"vat_sell"`
	GrossSell             float64 `json:"gross_sell"`
	UnitSellPrice         float64 `json:"unit_sell_price"`
	GrossUnitSell         float64 `json:"gross_unit_sell"`
	// Degenerate is set when margin plus financing reaches 100% or the line
	// amounts overflow; the sell side cannot be derived and is zero.
	Degenerate bool `json:"degenerate"`
}

// markupDenominator returns 1 - totalPercent/100.
func markupDenominator(totalPercent float64) float64 {
	return 1 - totalPercent/100
}

// PriceLine converts the line cost into the display currency and backs out the
// sell price treating margin as a fraction of the sell price:
//
//	netSell = netBeforeMargin / (1 - (margin+financing)/100)
func PriceLine(line Line, vatRate float64, display Currency, rates Rates) LinePricing {
	cost := Convert(line.UnitCost, line.Currency, display, rates)
	netBefore := cost * line.Quantity
	vatBefore := netBefore * vatRate

	if !isFinite(cost) || !isFinite(netBefore + vatBefore) {
		return LinePricing{TotalPercent: line.TotalPercent(), Degenerate: true}
	}

	p := LinePricing{
		CostInDisplayCurrency: cost,
		NetBeforeMargin:       netBefore,
		VATBeforeMargin:       vatBefore,
		TotalBeforeMargin:     netBefore + vatBefore,
		TotalPercent:          line.TotalPercent(),
	}

	denom := markupDenominator(p.TotalPercent)
	if denom <= 0 {
		p.Degenerate = true
		return p
	}

	p.NetSell = netBefore / denom
	p.VATSell = p.NetSell * vatRate
	p.GrossSell = p.NetSell + p.VATSell
	if !isFinite(p.GrossSell) {
		return LinePricing{TotalPercent: p.TotalPercent, Degenerate: true}
	}
	if line.Quantity > 0 {
		p.UnitSellPrice = p.NetSell / line.Quantity
		p.GrossUnitSell = p.GrossSell / line.Quantity
	}
	return p
}
