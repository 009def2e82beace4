package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// QuoteText renders a quote as plain text for chat or clipboard sharing.
func QuoteText(company Company, doc QuoteDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "COTIZACIÓN N° %s\n", doc.Number)
	if company.Name != "" {
		fmt.Fprintf(&b, "%s\n", company.Name)
	}
	fmt.Fprintf(&b, "Fecha: %s\n", doc.Date)
	fmt.Fprintf(&b, "Cliente: %s\n", doc.ClientName)
	if doc.ClientTaxID != "" {
		fmt.Fprintf(&b, "RUT: %s\n", doc.ClientTaxID)
	}
	if doc.Reference != "" {
		fmt.Fprintf(&b, "Referencia: %s\n", doc.Reference)
	}

	b.WriteString("\n")
	for i, lr := range doc.Result.Lines {
		fmt.Fprintf(&b, "%d. %s x %s - %s c/u - %s\n",
			i+1,
			lr.Line.Name,
			formatQuantity(lr.Line.Quantity),
			doc.money(lr.Pricing.UnitSellPrice),
			doc.money(lr.Pricing.NetSell),
		)
	}

	t := doc.Result.Totals
	b.WriteString("\n")
	fmt.Fprintf(&b, "Neto: %s\n", doc.money(t.Subtotal))
	fmt.Fprintf(&b, "IVA %s: %s\n", formatPercent(doc.Result.VATRate), doc.money(t.VAT))
	if t.Freight > 0 {
		fmt.Fprintf(&b, "Flete: %s\n", doc.money(t.Freight))
	}
	fmt.Fprintf(&b, "Total: %s\n", doc.money(t.GrandTotal))

	if doc.Notes != "" {
		fmt.Fprintf(&b, "\nObservaciones: %s\n", doc.Notes)
	}
	return b.String()
}

var emailTemplate = template.Must(template.New("email").Parse(`<p>Estimado/a {{.Client}},</p>
<p>Adjunto encontrará la cotización <strong>{{.Number}}</strong> por un valor total de <strong>{{.Total}}</strong>.</p>
{{- if .Message}}
<p>{{.Message}}</p>
{{- end}}
<p>Quedo atento a sus comentarios.</p>
<p>Saludos cordiales,<br>{{.Company}}</p>
`))

// QuoteEmailHTML renders the body of the email that carries the quote PDF.
// message is an optional free-text paragraph.
func QuoteEmailHTML(company Company, doc QuoteDocument, message string) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, map[string]string{
		"Client":  doc.ClientName,
		"Number":  doc.Number,
		"Total":   doc.money(doc.Result.Totals.GrandTotal),
		"Message": message,
		"Company": company.Name,
	})
	if err != nil {
		return "", fmt.Errorf("render quote email: %w", err)
	}
	return buf.String(), nil
}
