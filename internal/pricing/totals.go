package pricing

// Totals are the as-priced quote figures.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	VAT        float64 `json:"iva"`
	Freight    float64 `json:"flete"`
	GrandTotal float64 `json:"total"`
}

// ResaleLine is one line of the national resale view, where allocated freight
// is folded into a blended unit price.
type ResaleLine struct {
	LineID     string  `json:"id"`
	Name       string  `json:"nombre"`
	Quantity   float64 `json:"cantidad"`
	BlendedNet float64 `json:"neto_mezclado"`
	UnitPrice  float64 `json:"precio_unitario"`
	Net        float64 `json:"neto"`
}

// ResaleTotals are the national resale view totals.
type ResaleTotals struct {
	Lines []ResaleLine `json:"lineas"`
	Net   float64      `json:"neto"`
	VAT   float64      `json:"iva"`
	Gross float64      `json:"total_bruto"`
}

// SumTotals aggregates the as-priced view.
func SumTotals(lines []LineResult, vatRate float64) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal += l.Pricing.NetSell
		t.Freight += l.Freight.Amount
	}
	t.VAT = t.Subtotal * vatRate
	t.GrandTotal = t.Subtotal + t.VAT + t.Freight
	return t
}

// SumResale re-derives each line's unit price from sell plus both freight
// shares and sums the resale view. It is computed independently of SumTotals.
func SumResale(lines []LineResult, vatRate float64) ResaleTotals {
	rt := ResaleTotals{Lines: make([]ResaleLine, 0, len(lines))}
	for _, l := range lines {
		rl := ResaleLine{
			LineID:     l.Line.ID,
			Name:       l.Line.Name,
			Quantity:   l.Line.Quantity,
			BlendedNet: l.Pricing.NetSell + l.Freight.International + l.Freight.National,
		}
		if rl.Quantity > 0 {
			rl.UnitPrice = rl.BlendedNet / rl.Quantity
		}
		rl.Net = rl.UnitPrice * rl.Quantity
		rt.Net += rl.Net
		rt.Lines = append(rt.Lines, rl)
	}
	rt.VAT = rt.Net * vatRate
	rt.Gross = rt.Net + rt.VAT
	return rt
}
