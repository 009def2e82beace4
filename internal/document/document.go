// Package document renders quotes as PDF, plain text and HTML email bodies.
package document

import (
	"time"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

// Company is the issuer shown on every document.
type Company struct {
	Name    string
	TaxID   string
	Address string
	Email   string
	Phone   string
	Website string
}

// QuoteDocument is everything a rendered quote shows.
type QuoteDocument struct {
	Number      string
	Date        string
	ClientName  string
	ClientTaxID string
	ClientEmail string
	Reference   string
	Notes       string
	Result      pricing.Result
	// ShowResale adds the national resale summary with freight blended in.
	ShowResale bool
}

// FromRecord builds the document of a stored quote.
func FromRecord(q store.QuoteRecord) QuoteDocument {
	date := q.IssuedOn
	if date == "" && !q.CreatedAt.IsZero() {
		date = q.CreatedAt.Format(time.DateOnly)
	}
	return QuoteDocument{
		Number:      q.Number,
		Date:        date,
		ClientName:  q.ClientName,
		ClientTaxID: q.ClientTaxID,
		ClientEmail: q.ClientEmail,
		Reference:   q.Reference,
		Notes:       q.Notes,
		Result:      q.Result,
		ShowResale:  q.Result.Totals.Freight > 0,
	}
}

func (d QuoteDocument) money(v float64) string {
	return FormatMoney(v, d.Result.DisplayCurrency)
}
