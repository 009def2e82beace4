package document

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	grey      = &props.Color{Red: 100, Green: 100, Blue: 100}
	headerBg  = &props.Color{Red: 33, Green: 37, Blue: 41}
	white     = &props.Color{Red: 255, Green: 255, Blue: 255}
	stripeBg  = &props.Color{Red: 245, Green: 245, Blue: 245}
	labelText = props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: grey}
	valueText = props.Text{Size: 8, Align: align.Left}
)

// QuotePDF renders a quote with maroto and returns the PDF bytes.
func QuotePDF(company Company, doc QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, company, doc)
	addClientBlock(m, doc)
	addLinesTable(m, doc)
	addTotals(m, doc)
	if doc.ShowResale {
		addResaleSummary(m, doc)
	}
	addNotes(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func addHeader(m core.Maroto, company Company, doc QuoteDocument) {
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(text.New(company.Name, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(5).Add(text.New("COTIZACIÓN", props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Right,
				Color: headerBg,
			})),
		),
	)

	details := joinNonEmpty([]string{
		prefixed("RUT: ", company.TaxID),
		company.Address,
		company.Email,
		company.Phone,
		company.Website,
	}, " | ")
	m.AddRows(
		row.New(8).Add(
			col.New(7).Add(text.New(details, props.Text{Size: 8, Align: align.Left, Color: grey})),
			col.New(5).Add(text.New("N° "+doc.Number, props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Right,
			})),
		),
	)
	m.AddRows(row.New(3))
}

func addClientBlock(m core.Maroto, doc QuoteDocument) {
	m.AddRows(
		row.New(6).Add(
			col.New(8).Add(text.New("CLIENTE", labelText)),
			col.New(4).Add(text.New("FECHA", props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Right, Color: grey})),
		),
		row.New(7).Add(
			col.New(8).Add(text.New(doc.ClientName, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left})),
			col.New(4).Add(text.New(doc.Date, props.Text{Size: 8, Align: align.Right})),
		),
	)
	if contact := joinNonEmpty([]string{prefixed("RUT: ", doc.ClientTaxID), doc.ClientEmail}, " | "); contact != "" {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New(contact, valueText))))
	}
	if doc.Reference != "" {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New("Referencia: "+doc.Reference, valueText))))
	}
	m.AddRows(row.New(4))
}

func addLinesTable(m core.Maroto, doc QuoteDocument) {
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}
	headerCell := props.Cell{BackgroundColor: headerBg}
	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", head)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Producto", head)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Cantidad", head)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Precio unitario", head)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Total", head)).WithStyle(&headerCell),
		),
	)

	center := props.Text{Size: 8, Align: align.Center, Top: 1}
	left := props.Text{Size: 8, Align: align.Left, Top: 1}
	right := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
	for i, lr := range doc.Result.Lines {
		name := lr.Line.Name
		if lr.Line.Description != "" {
			name += " - " + lr.Line.Description
		}
		cols := []core.Col{
			col.New(1).Add(text.New(strconv.Itoa(i+1), center)),
			col.New(5).Add(text.New(name, left)),
			col.New(2).Add(text.New(formatQuantity(lr.Line.Quantity), center)),
			col.New(2).Add(text.New(doc.money(lr.Pricing.UnitSellPrice), right)),
			col.New(2).Add(text.New(doc.money(lr.Pricing.NetSell), right)),
		}
		if i%2 == 1 {
			for j := range cols {
				cols[j] = cols[j].WithStyle(&props.Cell{BackgroundColor: stripeBg})
			}
		}
		m.AddRows(row.New(7).Add(cols...))
	}
	m.AddRows(row.New(4))
}

func totalRow(label, value string, bold bool) core.Row {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	return row.New(6).Add(
		col.New(8),
		col.New(2).Add(text.New(label, props.Text{Size: 8, Style: style, Align: align.Right})),
		col.New(2).Add(text.New(value, props.Text{Size: 8, Style: style, Align: align.Right, Right: 1})),
	)
}

func addTotals(m core.Maroto, doc QuoteDocument) {
	t := doc.Result.Totals
	m.AddRows(
		totalRow("Neto", doc.money(t.Subtotal), false),
		totalRow("IVA "+formatPercent(doc.Result.VATRate), doc.money(t.VAT), false),
	)
	if t.Freight > 0 {
		m.AddRows(totalRow("Flete", doc.money(t.Freight), false))
	}
	m.AddRows(totalRow("Total", doc.money(t.GrandTotal), true))
}

func addResaleSummary(m core.Maroto, doc QuoteDocument) {
	r := doc.Result.Resale
	m.AddRows(
		row.New(4),
		row.New(6).Add(col.New(12).Add(text.New("RESUMEN NACIONAL (flete incluido en precio)", labelText))),
	)
	for _, l := range r.Lines {
		m.AddRows(row.New(6).Add(
			col.New(6).Add(text.New(l.Name, valueText)),
			col.New(2).Add(text.New(formatQuantity(l.Quantity), props.Text{Size: 8, Align: align.Center})),
			col.New(2).Add(text.New(doc.money(l.UnitPrice), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(doc.money(l.Net), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	m.AddRows(
		totalRow("Neto", doc.money(r.Net), false),
		totalRow("IVA", doc.money(r.VAT), false),
		totalRow("Total bruto", doc.money(r.Gross), true),
	)
}

func addNotes(m core.Maroto, doc QuoteDocument) {
	if doc.Notes == "" {
		return
	}
	m.AddRows(
		row.New(4),
		row.New(6).Add(col.New(12).Add(text.New("OBSERVACIONES", labelText))),
		row.New(12).Add(col.New(12).Add(text.New(doc.Notes, valueText))),
	)
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
