package pricing

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultVATRate is the Chilean IVA rate applied when a quote does not set one.
const DefaultVATRate = 0.19

// LineInput is a quote line as received from storage or a form. Optional
// fields are pointers so that "absent" can fall back to quote-level defaults.
type LineInput struct {
	ID                     string   `json:"id,omitempty"`
	ProductID              string   `json:"producto_id,omitempty"`
	Name                   string   `json:"nombre"`
	Description            string   `json:"descripcion,omitempty"`
	Quantity               float64  `json:"cantidad"`
	Currency               string   `json:"moneda,omitempty"`
	UnitCost               float64  `json:"costo_unitario"`
	MarginPercent          *float64 `json:"margen,omitempty"`
	FinancingCostPercent   *float64 `json:"costo_financiero,omitempty"`
	FreightOverridePercent *float64 `json:"flete_porcentaje,omitempty"`
	SupplierName           string   `json:"proveedor,omitempty"`
	SupplierTaxID          string   `json:"rut_proveedor,omitempty"`
	LeadTimeDays           int      `json:"plazo_dias,omitempty"`
}

// QuoteInput carries every input of a pricing run.
type QuoteInput struct {
	InputCurrency        string        `json:"moneda_entrada,omitempty"`
	DisplayCurrency      string        `json:"moneda_pdf,omitempty"`
	MarginPercent        float64       `json:"margen"`
	VATRate              *float64      `json:"iva,omitempty"`
	FreightType          string        `json:"tipo_flete,omitempty"`
	Lines                []LineInput   `json:"items"`
	InternationalFreight []FreightItem `json:"flete_internacional,omitempty"`
	NationalFreight      []FreightItem `json:"flete_nacional,omitempty"`
	Rates                Rates         `json:"tasas,omitempty"`
}

// Quote is the normalized form of QuoteInput consumed by Compute.
type Quote struct {
	InputCurrency        Currency
	DisplayCurrency      Currency
	MarginPercent        float64
	VATRate              float64
	FreightType          FreightType
	Lines                []Line
	InternationalFreight []FreightItem
	NationalFreight      []FreightItem
	Rates                Rates
}

// Normalize resolves defaults and coerces non-finite numbers once, so that the
// pricing functions downstream can rely on clean values.
func Normalize(in QuoteInput) Quote {
	inputCur, ok := ParseCurrency(in.InputCurrency)
	if !ok {
		inputCur = CLP
	}
	displayCur, ok := ParseCurrency(in.DisplayCurrency)
	if !ok {
		displayCur = inputCur
	}

	vat := DefaultVATRate
	if in.VATRate != nil && isFinite(*in.VATRate) && *in.VATRate >= 0 {
		vat = *in.VATRate
	}

	rates := in.Rates
	if len(rates) == 0 {
		rates = DefaultRates()
	}

	q := Quote{
		InputCurrency:   inputCur,
		DisplayCurrency: displayCur,
		MarginPercent:   finiteOrZero(in.MarginPercent),
		VATRate:         vat,
		FreightType:     ParseFreightType(in.FreightType),
		Lines:           make([]Line, 0, len(in.Lines)),
		Rates:           rates,
	}

	for _, li := range in.Lines {
		q.Lines = append(q.Lines, normalizeLine(li, q))
	}
	q.InternationalFreight = normalizeFreight(in.InternationalFreight, displayCur, true)
	q.NationalFreight = normalizeFreight(in.NationalFreight, displayCur, false)
	return q
}

func normalizeLine(in LineInput, q Quote) Line {
	cur, ok := ParseCurrency(in.Currency)
	if !ok {
		cur = q.InputCurrency
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	l := Line{
		ID:            id,
		ProductID:     in.ProductID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Quantity:      nonNegative(in.Quantity),
		Currency:      cur,
		UnitCost:      nonNegative(in.UnitCost),
		MarginPercent: q.MarginPercent,
		SupplierName:  strings.TrimSpace(in.SupplierName),
		SupplierTaxID: strings.TrimSpace(in.SupplierTaxID),
		LeadTimeDays:  in.LeadTimeDays,
	}
	if in.MarginPercent != nil && isFinite(*in.MarginPercent) {
		l.MarginPercent = *in.MarginPercent
	}
	if in.FinancingCostPercent != nil {
		l.FinancingCostPercent = finiteOrZero(*in.FinancingCostPercent)
	}
	if in.FreightOverridePercent != nil {
		l.FreightOverridePercent = nonNegative(*in.FreightOverridePercent)
	}
	return l
}

func normalizeFreight(items []FreightItem, display Currency, international bool) []FreightItem {
	out := make([]FreightItem, 0, len(items))
	for _, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		it.EstimatedValue = nonNegative(it.EstimatedValue)
		if c, ok := ParseCurrency(string(it.Currency)); ok {
			it.Currency = c
		} else {
			it.Currency = display
		}
		// Older records only mark the placeholder through its description.
		if international && IsSupplierInvoiceDescription(it.Description) {
			it.SupplierInvoice = true
		}
		if !international {
			it.SupplierInvoice = false
		}
		out = append(out, it)
	}
	return out
}

func nonNegative(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	return v
}
