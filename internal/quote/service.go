// Package quote manages the quote lifecycle around the pricing engine:
// numbering, status changes, expiry and conversion into purchase orders.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Simplici0/cotizador/internal/ledger"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

const (
	dateLayout          = "2006-01-02"
	purchaseOrderPrefix = "OC"
)

var (
	ErrMissingClient = errors.New("cliente es requerido")
	ErrNoLines       = errors.New("la cotización no tiene productos")
	ErrNotApproved   = errors.New("solo las cotizaciones aprobadas generan orden de compra")
)

// Repository is the persistence the service needs.
type Repository interface {
	Settings(ctx context.Context) (store.Settings, error)
	NextNumber(ctx context.Context, counter, prefix string) (string, error)
	InsertQuote(ctx context.Context, q *store.QuoteRecord) error
	UpdateQuote(ctx context.Context, q *store.QuoteRecord) error
	GetQuote(ctx context.Context, id int64) (store.QuoteRecord, error)
	ListQuotes(ctx context.Context, f store.QuoteFilter) ([]store.QuoteRecord, error)
	Get(ctx context.Context, collection, id string, v any) error
	SavePurchaseOrder(ctx context.Context, po store.PurchaseOrder) (store.PurchaseOrder, error)
}

// RateSource provides the current exchange rate table.
type RateSource interface {
	Current(ctx context.Context) pricing.Rates
}

// Draft is the user-editable part of a new quote.
type Draft struct {
	ClientID      string             `json:"cliente_id,omitempty"`
	ClientName    string             `json:"cliente"`
	ClientTaxID   string             `json:"rut_cliente,omitempty"`
	ClientEmail   string             `json:"email_cliente,omitempty"`
	IssuedOn      string             `json:"fecha,omitempty"`
	Reference     string             `json:"referencia,omitempty"`
	Notes         string             `json:"notas,omitempty"`
	LegacyFreight float64            `json:"flete,omitempty"`
	Input         pricing.QuoteInput `json:"entrada"`
}

// Service implements quote operations over a Repository.
type Service struct {
	repo  Repository
	rates RateSource
	now   func() time.Time
}

// NewService returns a Service. rates may be nil to always use the defaults.
func NewService(repo Repository, rates RateSource) *Service {
	return &Service{repo: repo, rates: rates, now: time.Now}
}

// Preview prices input with the stored defaults without persisting anything.
func (s *Service) Preview(ctx context.Context, in pricing.QuoteInput) (pricing.Result, error) {
	in, err := s.resolve(ctx, in)
	if err != nil {
		return pricing.Result{}, err
	}
	return pricing.Calculate(in), nil
}

// resolve fills quote-level fields left empty from settings and rates.
func (s *Service) resolve(ctx context.Context, in pricing.QuoteInput) (pricing.QuoteInput, error) {
	st, err := s.repo.Settings(ctx)
	if err != nil {
		return in, fmt.Errorf("load settings: %w", err)
	}
	if strings.TrimSpace(in.InputCurrency) == "" {
		in.InputCurrency = string(st.InputCurrency)
	}
	if strings.TrimSpace(in.DisplayCurrency) == "" {
		in.DisplayCurrency = string(st.DisplayCurrency)
	}
	if in.VATRate == nil {
		vat := st.VATRate()
		in.VATRate = &vat
	}
	if strings.TrimSpace(in.FreightType) == "" {
		in.FreightType = string(st.FreightType)
	}
	if len(in.Rates) == 0 {
		if s.rates != nil {
			in.Rates = s.rates.Current(ctx)
		} else {
			in.Rates = pricing.DefaultRates()
		}
	}
	return in, nil
}

// Create numbers, prices and stores a new draft quote.
func (s *Service) Create(ctx context.Context, d Draft) (store.QuoteRecord, error) {
	if d.ClientID != "" {
		var c store.Client
		if err := s.repo.Get(ctx, store.CollectionClients, d.ClientID, &c); err != nil {
			return store.QuoteRecord{}, fmt.Errorf("load client %s: %w", d.ClientID, err)
		}
		if d.ClientName == "" {
			d.ClientName = c.Name
		}
		if d.ClientTaxID == "" {
			d.ClientTaxID = c.TaxID
		}
		if d.ClientEmail == "" {
			d.ClientEmail = c.Email
		}
	}
	if strings.TrimSpace(d.ClientName) == "" {
		return store.QuoteRecord{}, ErrMissingClient
	}
	if len(d.Input.Lines) == 0 {
		return store.QuoteRecord{}, ErrNoLines
	}

	st, err := s.repo.Settings(ctx)
	if err != nil {
		return store.QuoteRecord{}, fmt.Errorf("load settings: %w", err)
	}
	input, err := s.resolve(ctx, d.Input)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	number, err := s.repo.NextNumber(ctx, store.CounterQuotes, st.QuotePrefix)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	if d.IssuedOn == "" {
		d.IssuedOn = s.now().Format(dateLayout)
	}

	q := store.QuoteRecord{
		Number:        number,
		Status:        string(StatusDraft),
		ClientID:      d.ClientID,
		ClientName:    d.ClientName,
		ClientTaxID:   d.ClientTaxID,
		ClientEmail:   d.ClientEmail,
		IssuedOn:      d.IssuedOn,
		Reference:     d.Reference,
		Notes:         d.Notes,
		LegacyFreight: d.LegacyFreight,
		Input:         input,
		Result:        pricing.Calculate(input),
	}
	if err := s.repo.InsertQuote(ctx, &q); err != nil {
		return store.QuoteRecord{}, err
	}
	log.WithFields(log.Fields{"numero": q.Number, "cliente": q.ClientName}).Info("quote created")
	return q, nil
}

// Get loads a quote, expiring it first when it has aged out.
func (s *Service) Get(ctx context.Context, id int64) (store.QuoteRecord, error) {
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	return s.expire(ctx, q)
}

// List returns quotes matching filter after applying expiry.
func (s *Service) List(ctx context.Context, f store.QuoteFilter) ([]store.QuoteRecord, error) {
	if f.Status != "" {
		st, err := ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = string(st)
	}
	// Expiry may move a quote out of the requested status, so filter after it.
	wanted := f.Status
	f.Status = ""

	quotes, err := s.repo.ListQuotes(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]store.QuoteRecord, 0, len(quotes))
	for _, q := range quotes {
		q, err := s.expire(ctx, q)
		if err != nil {
			return nil, err
		}
		if wanted != "" && q.Status != wanted {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Service) expire(ctx context.Context, q store.QuoteRecord) (store.QuoteRecord, error) {
	current, err := ParseStatus(q.Status)
	if err != nil {
		current = StatusDraft
	}
	next := Age(current, issuedAt(q), s.now())
	if next == Status(q.Status) {
		return q, nil
	}
	q.Status = string(next)
	if err := s.repo.UpdateQuote(ctx, &q); err != nil {
		return store.QuoteRecord{}, fmt.Errorf("expire quote %s: %w", q.Number, err)
	}
	if next == StatusExpired {
		log.WithField("numero", q.Number).Info("quote expired")
	}
	return q, nil
}

func issuedAt(q store.QuoteRecord) time.Time {
	if t, err := time.Parse(dateLayout, q.IssuedOn); err == nil {
		return t
	}
	return q.CreatedAt
}

// SetStatus moves a quote to a new status following the allowed transitions.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (store.QuoteRecord, error) {
	to, err := ParseStatus(raw)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return store.QuoteRecord{}, err
	}
	from := Status(q.Status)
	if from == to {
		return q, nil
	}
	if !CanTransition(from, to) {
		return store.QuoteRecord{}, fmt.Errorf("%w: %s a %s", ErrInvalidTransition, from, to)
	}
	if from == StatusExpired && to == StatusSent {
		// Re-sending restarts the validity period.
		q.IssuedOn = s.now().Format(dateLayout)
	}
	q.Status = string(to)
	if err := s.repo.UpdateQuote(ctx, &q); err != nil {
		return store.QuoteRecord{}, err
	}
	log.WithFields(log.Fields{"numero": q.Number, "desde": from, "hacia": to}).Info("quote status changed")
	return q, nil
}

// ToPurchaseOrder issues a pending purchase order from an approved quote.
func (s *Service) ToPurchaseOrder(ctx context.Context, id int64) (store.PurchaseOrder, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return store.PurchaseOrder{}, err
	}
	if Status(q.Status) != StatusApproved {
		return store.PurchaseOrder{}, ErrNotApproved
	}
	number, err := s.repo.NextNumber(ctx, store.CounterPurchaseOrders, purchaseOrderPrefix)
	if err != nil {
		return store.PurchaseOrder{}, err
	}

	po := store.PurchaseOrder{
		Number:      number,
		ClientName:  q.ClientName,
		ClientTaxID: q.ClientTaxID,
		Items:       make([]store.PurchaseOrderItem, 0, len(q.Result.Lines)),
		Subtotal:    q.Result.Totals.Subtotal,
		VAT:         q.Result.Totals.VAT,
		Total:       q.Result.Totals.Subtotal + q.Result.Totals.VAT,
		Date:        s.now().Format(dateLayout),
		Status:      store.OrderPending,
		SourceQuote: q.Number,
	}
	for _, lr := range q.Result.Lines {
		po.Items = append(po.Items, store.PurchaseOrderItem{
			ID:       lr.Line.ID,
			Name:     lr.Line.Name,
			Quantity: lr.Line.Quantity,
			Price:    lr.Pricing.UnitSellPrice,
			Total:    lr.Pricing.NetSell,
		})
	}
	return s.repo.SavePurchaseOrder(ctx, po)
}

// Sales returns approved quotes in accounting form.
func (s *Service) Sales(ctx context.Context) ([]ledger.Sale, error) {
	quotes, err := s.List(ctx, store.QuoteFilter{Status: string(StatusApproved)})
	if err != nil {
		return nil, err
	}
	sales := make([]ledger.Sale, 0, len(quotes))
	for _, q := range quotes {
		sales = append(sales, ledger.Sale{
			Number:        q.Number,
			Date:          q.IssuedOn,
			ClientName:    q.ClientName,
			Result:        q.Result,
			LegacyFreight: q.LegacyFreight,
		})
	}
	return sales, nil
}

// Ledger builds the accounting entries over approved quotes.
func (s *Service) Ledger(ctx context.Context) (ledger.Report, error) {
	sales, err := s.Sales(ctx)
	if err != nil {
		return ledger.Report{}, err
	}
	return ledger.Build(sales), nil
}

// Register builds the sales register over approved quotes.
func (s *Service) Register(ctx context.Context) (ledger.Register, error) {
	sales, err := s.Sales(ctx)
	if err != nil {
		return ledger.Register{}, err
	}
	return ledger.SalesRegister(sales), nil
}
