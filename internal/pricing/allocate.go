package pricing

// LineFreight is the freight charged to one line.
type LineFreight struct {
	SharePercent float64 `json:"porcentaje"`
	// International and National are the marked-up shares of each pool.
	International float64 `json:"internacional"`
	National      float64 `json:"nacional"`
	// Amount is the freight used by the as-priced totals, per the quote's freight type.
	Amount float64 `json:"monto"`
}

// SharePercent returns the line's share of a freight pool: the explicit
// override when present, otherwise its share of the total cost of goods.
func SharePercent(line Line, netBeforeMargin, totalCostOfGoods float64) float64 {
	if line.HasFreightOverride() {
		return line.FreightOverridePercent
	}
	if totalCostOfGoods <= 0 {
		return 0
	}
	return netBeforeMargin / totalCostOfGoods * 100
}

// AllocateFreight grosses the line's portion of pool up by the line's own
// markup so that freight carries the same margin as the product. A degenerate
// markup leaves the proportional amount as is. The no-pool branch reads the
// share as a percentage of the line's net sell; allocateLine only takes it for
// lines with a freight override.
func AllocateFreight(pool, sharePercent float64, p LinePricing) float64 {
	if pool <= 0 {
		return nonNegative(p.NetSell * sharePercent / 100)
	}
	raw := pool * sharePercent / 100
	denom := markupDenominator(p.TotalPercent)
	if denom <= 0 {
		return nonNegative(raw)
	}
	return nonNegative(raw / denom)
}

func allocateLine(line Line, p LinePricing, pools FreightPools, totalCostOfGoods float64, t FreightType) LineFreight {
	share := SharePercent(line, p.NetBeforeMargin, totalCostOfGoods)
	lf := LineFreight{SharePercent: share}

	if pools.International > 0 {
		lf.International = AllocateFreight(pools.International, share, p)
	}
	if pools.National > 0 {
		lf.National = AllocateFreight(pools.National, share, p)
	}
	// Without a pool to distribute only an explicit override charges freight,
	// read as a percentage of the line's net sell.
	if line.HasFreightOverride() && t != FreightNone && pools.Pool(t) <= 0 {
		fallback := AllocateFreight(0, share, p)
		if t == FreightNational {
			lf.National = fallback
		} else {
			lf.International = fallback
		}
	}

	switch t {
	case FreightNational:
		lf.Amount = lf.National
	case FreightBoth:
		lf.Amount = lf.International + lf.National
	case FreightNone:
		lf.Amount = 0
	default:
		lf.Amount = lf.International
	}
	return lf
}
