package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Simplici0/cotizador/internal/document"
	"github.com/Simplici0/cotizador/internal/importer"
	"github.com/Simplici0/cotizador/internal/mailer"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/store"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "base de datos no disponible")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estado": "ok"})
}

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Settings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var st store.Settings
	if !decodeJSON(w, r, &st) {
		return
	}
	if c, ok := pricing.ParseCurrency(string(st.InputCurrency)); ok {
		st.InputCurrency = c
	}
	if c, ok := pricing.ParseCurrency(string(st.DisplayCurrency)); ok {
		st.DisplayCurrency = c
	}
	st.QuotePrefix = strings.TrimSpace(st.QuotePrefix)
	if err := st.Validate(); err != nil {
		writeServiceError(w, invalid(err))
		return
	}
	if err := s.store.UpdateSettings(r.Context(), st); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) handleRatesGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rates.Table(r.Context()))
}

func (s *server) handleRatesRefresh(w http.ResponseWriter, r *http.Request) {
	table, err := s.rates.Refresh(r.Context())
	if err != nil {
		log.Warnf("rates refresh failed: %v", err)
		writeError(w, http.StatusBadGateway, "no fue posible actualizar los tipos de cambio")
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	var in pricing.QuoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validateQuoteInput(in); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := s.quotes.Preview(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.List(r.Context(), store.QuoteFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Status: strings.TrimSpace(r.URL.Query().Get("estado")),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var d quote.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	if err := validateQuoteInput(d.Input); err != nil {
		writeServiceError(w, err)
		return
	}
	q, err := s.quotes.Create(r.Context(), d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (store.QuoteRecord, bool) {
	id, err := quoteID(r)
	if err != nil {
		writeServiceError(w, err)
		return store.QuoteRecord{}, false
	}
	q, err := s.quotes.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return store.QuoteRecord{}, false
	}
	return q, true
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type statusRequest struct {
	Status string `json:"estado"`
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := quoteID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := s.quotes.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	pdf, err := document.QuotePDF(s.company, document.FromRecord(q))
	if err != nil {
		writeServiceError(w, fmt.Errorf("render quote %s: %w", q.Number, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", q.Number+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(document.QuoteText(s.company, document.FromRecord(q))))
}

type emailRequest struct {
	To      string `json:"para"`
	Subject string `json:"asunto"`
	Message string `json:"mensaje"`
}

func (s *server) handleQuoteEmail(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = q.ClientEmail
	}
	if to == "" {
		writeServiceError(w, mailer.ErrNoRecipient)
		return
	}

	doc := document.FromRecord(q)
	html, err := document.QuoteEmailHTML(s.company, doc, strings.TrimSpace(req.Message))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pdf, err := document.QuotePDF(s.company, doc)
	if err != nil {
		writeServiceError(w, fmt.Errorf("render quote %s: %w", q.Number, err))
		return
	}

	msg := mailer.QuoteMessage(to, q.Number, html, pdf)
	msg.Subject = fmt.Sprintf("Cotización %s - %s", q.Number, q.ClientName)
	if subject := strings.TrimSpace(req.Subject); subject != "" {
		msg.Subject = subject
	}
	if err := s.mailer.Send(r.Context(), msg); err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			writeServiceError(w, err)
			return
		}
		log.Errorf("send quote %s: %v", q.Number, err)
		writeError(w, http.StatusBadGateway, "no fue posible enviar el correo")
		return
	}

	if quote.CanTransition(quote.Status(q.Status), quote.StatusSent) {
		if q, err = s.quotes.SetStatus(r.Context(), q.ID, string(quote.StatusSent)); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuotePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := quoteID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	po, err := s.quotes.ToPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}

func (s *server) handleClientsList(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.Clients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *server) handleClientSave(w http.ResponseWriter, r *http.Request) {
	var c store.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := c.Validate(); err != nil {
		writeServiceError(w, invalid(err))
		return
	}
	c, err := s.store.SaveClient(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleSuppliersList(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.store.Suppliers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (s *server) handleSupplierSave(w http.ResponseWriter, r *http.Request) {
	var sup store.Supplier
	if !decodeJSON(w, r, &sup) {
		return
	}
	if err := sup.Validate(); err != nil {
		writeServiceError(w, invalid(err))
		return
	}
	sup, err := s.store.SaveSupplier(r.Context(), sup)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Products(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleProductSave(w http.ResponseWriter, r *http.Request) {
	var p store.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		writeServiceError(w, invalid(err))
		return
	}
	p, err := s.store.SaveProduct(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePurchaseOrdersList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.PurchaseOrders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

var deletableCollections = map[string]string{
	"clients":         store.CollectionClients,
	"suppliers":       store.CollectionSuppliers,
	"products":        store.CollectionProducts,
	"purchase-orders": store.CollectionPurchaseOrders,
}

func (s *server) handleRecordDelete(w http.ResponseWriter, r *http.Request) {
	collection, ok := deletableCollections[chi.URLParam(r, "collection")]
	if !ok {
		writeError(w, http.StatusNotFound, "colección no encontrada")
		return
	}
	if err := s.store.Delete(r.Context(), collection, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	File string `json:"archivo"`
}

type importResponse struct {
	importer.Result
	Applied importer.Applied `json:"aplicado"`
}

func (s *server) handleImportExcel(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := importer.ParseBase64(req.File)
	if err != nil {
		writeServiceError(w, invalid(err))
		return
	}
	applied, err := importer.Apply(r.Context(), s.store, res)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Result: res, Applied: applied})
}

func (s *server) handleLedger(w http.ResponseWriter, r *http.Request) {
	report, err := s.quotes.Ledger(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleSalesRegister(w http.ResponseWriter, r *http.Request) {
	register, err := s.quotes.Register(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, register)
}
