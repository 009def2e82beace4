package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// Sale is an approved quote as seen by accounting.
type Sale struct {
	Number     string         `json:"numero"`
	Date       string         `json:"fecha"`
	ClientName string         `json:"cliente"`
	Result     pricing.Result `json:"-"`
	// LegacyFreight is the flat freight of quotes created before freight was itemized.
	LegacyFreight float64 `json:"-"`
}

// Totals are the accounting aggregates over a set of sales.
type Totals struct {
	NetPurchase decimal.Decimal `json:"neto_compra"`
	NetFreight  decimal.Decimal `json:"neto_flete"`
	NetSale     decimal.Decimal `json:"neto_venta"`
	SaleVAT     decimal.Decimal `json:"iva_venta"`
	SaleTotal   decimal.Decimal `json:"total_venta"`
}

// Report is the full accounting view.
type Report struct {
	Totals  Totals          `json:"totales"`
	Entries []Entry         `json:"asientos"`
	Flows   []Flow          `json:"flujos"`
	FlowNet decimal.Decimal `json:"rentabilidad_flujo"`
}

// Summarize aggregates purchase cost, freight and sale figures.
func Summarize(sales []Sale) Totals {
	t := Totals{
		NetPurchase: decimal.Zero,
		NetFreight:  decimal.Zero,
		NetSale:     decimal.Zero,
		SaleVAT:     decimal.Zero,
	}
	for _, s := range sales {
		r := s.Result
		t.NetPurchase = t.NetPurchase.Add(decimal.NewFromFloat(r.TotalCostOfGoods))
		t.NetFreight = t.NetFreight.Add(saleFreight(s))

		if r.Resale.Net > 0 {
			t.NetSale = t.NetSale.Add(decimal.NewFromFloat(r.Resale.Net))
		} else {
			t.NetSale = t.NetSale.Add(decimal.NewFromFloat(r.Totals.Subtotal))
		}

		if r.Resale.VAT > 0 {
			t.SaleVAT = t.SaleVAT.Add(decimal.NewFromFloat(r.Resale.VAT))
		} else {
			t.SaleVAT = t.SaleVAT.Add(decimal.NewFromFloat(r.Totals.Subtotal).Mul(VATRate).Round(0))
		}
	}
	t.SaleTotal = t.NetSale.Add(t.SaleVAT)
	return t
}

// saleFreight is the unmarked freight cost: international without the
// supplier invoice plus national, or the legacy flat freight when both are empty.
func saleFreight(s Sale) decimal.Decimal {
	net := s.Result.Pools.International + s.Result.Pools.National
	if net != 0 {
		return decimal.NewFromFloat(net)
	}
	return decimal.NewFromFloat(s.LegacyFreight)
}

// Build returns the entries and cash flow for a set of approved sales.
func Build(sales []Sale) Report {
	t := Summarize(sales)
	flows, net := CashFlow(t.NetPurchase, t.NetFreight, t.SaleTotal, t.SaleVAT)
	return Report{
		Totals: t,
		Entries: []Entry{
			PurchaseEntry(t.NetPurchase),
			FreightEntry(t.NetFreight),
			SaleEntry(t.NetSale),
		},
		Flows:   flows,
		FlowNet: net,
	}
}

// RegisterRow is one approved sale in the sales register.
type RegisterRow struct {
	Number     string          `json:"numero"`
	Date       string          `json:"fecha"`
	ClientName string          `json:"cliente"`
	Total      decimal.Decimal `json:"total_venta"`
	Cost       decimal.Decimal `json:"costo_total"`
	Margin     decimal.Decimal `json:"margen_total"`
	VAT        decimal.Decimal `json:"iva"`
	Freight    decimal.Decimal `json:"flete"`
}

// Register is the sales register with its aggregate row.
type Register struct {
	Rows         []RegisterRow   `json:"ventas"`
	TotalSales   decimal.Decimal `json:"total_ventas"`
	TotalCost    decimal.Decimal `json:"total_costos"`
	TotalMargin  decimal.Decimal `json:"total_margen"`
	TotalVAT     decimal.Decimal `json:"total_iva"`
	TotalFreight decimal.Decimal `json:"total_flete"`
}

// SalesRegister lists approved sales with cost and margin.
func SalesRegister(sales []Sale) Register {
	reg := Register{
		Rows:         make([]RegisterRow, 0, len(sales)),
		TotalSales:   decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalMargin:  decimal.Zero,
		TotalVAT:     decimal.Zero,
		TotalFreight: decimal.Zero,
	}
	for _, s := range sales {
		r := s.Result
		client := s.ClientName
		if client == "" {
			client = "Sin cliente"
		}
		cost := decimal.NewFromFloat(r.TotalCostOfGoods)
		freight := decimal.NewFromFloat(r.Totals.Freight)
		if r.Totals.Freight == 0 {
			freight = decimal.NewFromFloat(s.LegacyFreight)
		}
		row := RegisterRow{
			Number:     s.Number,
			Date:       s.Date,
			ClientName: client,
			Total:      decimal.NewFromFloat(r.Totals.GrandTotal),
			Cost:       cost,
			Margin:     decimal.NewFromFloat(r.Totals.Subtotal).Sub(cost),
			VAT:        decimal.NewFromFloat(r.Totals.VAT),
			Freight:    freight,
		}
		reg.Rows = append(reg.Rows, row)
		reg.TotalSales = reg.TotalSales.Add(row.Total)
		reg.TotalCost = reg.TotalCost.Add(row.Cost)
		reg.TotalMargin = reg.TotalMargin.Add(row.Margin)
		reg.TotalVAT = reg.TotalVAT.Add(row.VAT)
		reg.TotalFreight = reg.TotalFreight.Add(row.Freight)
	}
	return reg
}
