// Package pricing computes quote line prices, freight allocation and totals.
//
// Costs are converted into the display currency, margin is treated as a
// fraction of the sell price, and freight pools are prorated across lines by
// their share of the cost of goods. All functions are pure.
package pricing

// LineResult groups a line with its computed figures.
type LineResult struct {
	Line    Line        `json:"linea"`
	Pricing LinePricing `json:"precio"`
	Freight LineFreight `json:"flete"`
}

// Result is the full output of a pricing run.
type Result struct {
	DisplayCurrency  Currency     `json:"moneda"`
	VATRate          float64      `json:"tasa_iva"`
	FreightType      FreightType  `json:"tipo_flete"`
	Lines            []LineResult `json:"lineas"`
	TotalCostOfGoods float64      `json:"costo_total"`
	Pools            FreightPools `json:"pools"`
	Totals           Totals       `json:"totales"`
	Resale           ResaleTotals `json:"resumen_nacional"`
}

// Compute runs the full pricing chain over a normalized quote.
func Compute(q Quote) Result {
	res := Result{
		DisplayCurrency: q.DisplayCurrency,
		VATRate:         q.VATRate,
		FreightType:     q.FreightType,
		Lines:           make([]LineResult, 0, len(q.Lines)),
	}

	for _, l := range q.Lines {
		p := PriceLine(l, q.VATRate, q.DisplayCurrency, q.Rates)
		if !isFinite(res.TotalCostOfGoods + p.GrossSell + p.TotalBeforeMargin) {
			p = LinePricing{TotalPercent: l.TotalPercent(), Degenerate: true}
		}
		res.TotalCostOfGoods += p.NetBeforeMargin
		res.Lines = append(res.Lines, LineResult{Line: l, Pricing: p})
	}

	res.Pools = BuildPools(q.InternationalFreight, q.NationalFreight, res.TotalCostOfGoods, q.DisplayCurrency, q.Rates)

	for i := range res.Lines {
		lr := &res.Lines[i]
		lr.Freight = allocateLine(lr.Line, lr.Pricing, res.Pools, res.TotalCostOfGoods, q.FreightType)
	}

	res.Totals = SumTotals(res.Lines, q.VATRate)
	res.Resale = SumResale(res.Lines, q.VATRate)
	return res
}

// Calculate normalizes raw input and computes it.
func Calculate(in QuoteInput) Result {
	return Compute(Normalize(in))
}
