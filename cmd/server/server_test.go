package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/cotizador/internal/config"
	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/seed"
	"github.com/Simplici0/cotizador/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dolar":{"valor":950},"euro":{"valor":1020}}`))
	}))
	t.Cleanup(feed.Close)

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(ctx, database, seed.Config{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := config.Config{
		Rates: config.Rates{URL: feed.URL, Timeout: time.Second, MaxAge: time.Hour},
		Company: config.Company{
			Name:  "Comercial Andes SpA",
			TaxID: "76.123.456-7",
		},
	}
	return newServer(cfg, database).routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleQuoteBody(clientID string) map[string]any {
	return map[string]any{
		"cliente_id": clientID,
		"referencia": "Licitación 12",
		"entrada": map[string]any{
			"margen": 20,
			"items": []map[string]any{
				{"id": "a", "nombre": "Bomba sumergible", "cantidad": 2, "costo_unitario": 100},
			},
		},
	}
}

func createClient(t *testing.T, h http.Handler) store.Client {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/clients", map[string]string{
		"nombre": "Minera Norte",
		"email":  "compras@mineranorte.cl",
		"rut":    "96.555.444-3",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 creating client, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[store.Client](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestQuoteLifecycle(t *testing.T) {
	h := newTestServer(t)
	client := createClient(t, h)

	rec := do(t, h, http.MethodPost, "/api/quotes", sampleQuoteBody(client.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[store.QuoteRecord](t, rec)
	if created.Number != "COT-00001" {
		t.Fatalf("unexpected quote number %q", created.Number)
	}
	if created.Status != "borrador" {
		t.Fatalf("expected draft status, got %q", created.Status)
	}
	if created.ClientEmail != client.Email {
		t.Fatalf("expected client email to be copied, got %q", created.ClientEmail)
	}
	if math.Abs(created.Result.Totals.Subtotal-250) > 1e-9 {
		t.Fatalf("unexpected subtotal %.4f", created.Result.Totals.Subtotal)
	}
	if math.Abs(created.Result.Totals.GrandTotal-297.5) > 1e-9 {
		t.Fatalf("unexpected grand total %.4f", created.Result.Totals.GrandTotal)
	}

	rec = do(t, h, http.MethodGet, "/api/quotes?q=minera", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing, got %d", rec.Code)
	}
	if list := decode[[]store.QuoteRecord](t, rec); len(list) != 1 {
		t.Fatalf("expected one quote, got %d", len(list))
	}

	rec = do(t, h, http.MethodPost, "/api/quotes/1/purchase-order", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for draft quote, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/quotes/1/status", map[string]string{"estado": "aceptada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[store.QuoteRecord](t, rec).Status; got != "aprobada" {
		t.Fatalf("expected approved status, got %q", got)
	}

	rec = do(t, h, http.MethodPost, "/api/quotes/1/status", map[string]string{"estado": "borrador"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 reopening an approved quote, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/quotes/1/purchase-order", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating order, got %d: %s", rec.Code, rec.Body.String())
	}
	po := decode[store.PurchaseOrder](t, rec)
	if po.Number != "OC-00001" || po.SourceQuote != "COT-00001" || po.Status != store.OrderPending {
		t.Fatalf("unexpected purchase order %+v", po)
	}
	if len(po.Items) != 1 || math.Abs(po.Items[0].Price-125) > 1e-9 {
		t.Fatalf("unexpected order items %+v", po.Items)
	}

	rec = do(t, h, http.MethodGet, "/api/sales", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for sales register, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "COT-00001") {
		t.Fatalf("expected approved quote in sales register: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/ledger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ledger, got %d", rec.Code)
	}
}

func TestQuoteCreateRequiresClient(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/quotes", sampleQuoteBody(""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/quotes", sampleQuoteBody("no-existe"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown client, got %d", rec.Code)
	}
}

func TestQuotePreviewValidation(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		line map[string]any
		want int
	}{
		{name: "valid", line: map[string]any{"nombre": "Cable", "cantidad": 1, "costo_unitario": 10}, want: http.StatusOK},
		{name: "zero quantity", line: map[string]any{"nombre": "Cable", "cantidad": 0, "costo_unitario": 10}, want: http.StatusBadRequest},
		{name: "negative cost", line: map[string]any{"nombre": "Cable", "cantidad": 1, "costo_unitario": -1}, want: http.StatusBadRequest},
		{name: "financing over 100", line: map[string]any{"nombre": "Cable", "cantidad": 1, "costo_unitario": 10, "costo_financiero": 120}, want: http.StatusBadRequest},
		{name: "overflowing amount", line: map[string]any{"nombre": "Cable", "cantidad": 1e200, "costo_unitario": 1e200}, want: http.StatusBadRequest},
		{name: "line total over limit", line: map[string]any{"nombre": "Cable", "cantidad": 1e8, "costo_unitario": 1e8}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/quotes/preview", map[string]any{
				"margen": 10,
				"items":  []map[string]any{tt.line},
			})
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQuoteCreateRejectsOverflowingLine(t *testing.T) {
	h := newTestServer(t)
	client := createClient(t, h)

	body := sampleQuoteBody(client.ID)
	body["entrada"].(map[string]any)["items"] = []map[string]any{
		{"nombre": "Bomba", "cantidad": 1e200, "costo_unitario": 1e200},
	}
	rec := do(t, h, http.MethodPost, "/api/quotes", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[errorResponse](t, rec); !strings.Contains(got.Error, "costo_unitario") && !strings.Contains(got.Error, "cantidad") {
		t.Fatalf("unexpected error message %q", got.Error)
	}
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Error == "" {
		t.Fatalf("expected an error body, got %q", rec.Body.String())
	}
}

func TestQuotePreviewUsesFeedRates(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/quotes/preview", map[string]any{
		"margen": 0,
		"items": []map[string]any{
			{"nombre": "Sensor", "cantidad": 1, "costo_unitario": 10, "moneda": "USD"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[pricing.Result](t, rec)
	if math.Abs(res.Totals.Subtotal-9500) > 1e-9 {
		t.Fatalf("expected subtotal converted at 950, got %.4f", res.Totals.Subtotal)
	}
}

func TestQuoteNotFoundAndBadID(t *testing.T) {
	h := newTestServer(t)

	if rec := do(t, h, http.MethodGet, "/api/quotes/99", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/quotes/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQuoteDocuments(t *testing.T) {
	h := newTestServer(t)
	client := createClient(t, h)
	if rec := do(t, h, http.MethodPost, "/api/quotes", sampleQuoteBody(client.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/quotes/1/text", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "COT-00001") || !strings.Contains(body, "Bomba sumergible") {
		t.Fatalf("unexpected text body:\n%s", body)
	}

	rec = do(t, h, http.MethodGet, "/api/quotes/1/pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected a PDF document")
	}
}

func TestQuoteEmailWithoutSMTP(t *testing.T) {
	h := newTestServer(t)
	client := createClient(t, h)
	if rec := do(t, h, http.MethodPost, "/api/quotes", sampleQuoteBody(client.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/quotes/1/email", map[string]string{})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/quotes/1", nil)
	if got := decode[store.QuoteRecord](t, rec).Status; got != "borrador" {
		t.Fatalf("failed send must not change status, got %q", got)
	}
}

func TestSettingsUpdate(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	st := decode[store.Settings](t, rec)
	if st.VATPercent != 19 || st.QuotePrefix != "COT" {
		t.Fatalf("unexpected default settings %+v", st)
	}

	st.MarginPercent = 100
	if rec := do(t, h, http.MethodPut, "/api/settings", st); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for margin 100, got %d", rec.Code)
	}

	st.MarginPercent = 25
	st.DisplayCurrency = "usd"
	st.QuotePrefix = "PRE"
	if rec := do(t, h, http.MethodPut, "/api/settings", st); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/settings", nil)
	got := decode[store.Settings](t, rec)
	if got.MarginPercent != 25 || got.DisplayCurrency != pricing.USD || got.QuotePrefix != "PRE" {
		t.Fatalf("settings not stored: %+v", got)
	}
}

func TestRatesEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/rates/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	table := decode[store.RateTable](t, rec)
	if table.Rates[pricing.USD] != 950 || table.Rates[pricing.EUR] != 1020 {
		t.Fatalf("unexpected rates %+v", table.Rates)
	}

	rec = do(t, h, http.MethodGet, "/api/rates", nil)
	if got := decode[store.RateTable](t, rec); got.Source != "mindicador" {
		t.Fatalf("expected cached feed rates, got source %q", got.Source)
	}
}

func TestMasterDataEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/clients", map[string]string{"nombre": "Sin rut"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete client, got %d", rec.Code)
	}

	client := createClient(t, h)

	rec = do(t, h, http.MethodPost, "/api/products", map[string]any{"nombre": "Válvula", "valor_unitario_origen": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for product, got %d: %s", rec.Code, rec.Body.String())
	}
	if p := decode[store.Product](t, rec); p.Currency != pricing.CLP {
		t.Fatalf("expected product currency default, got %q", p.Currency)
	}

	rec = do(t, h, http.MethodGet, "/api/clients?q=norte", nil)
	if list := decode[[]store.Client](t, rec); len(list) != 1 {
		t.Fatalf("expected one client, got %d", len(list))
	}

	if rec := do(t, h, http.MethodDelete, "/api/clients/"+client.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/clients/"+client.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/settings/1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown collection, got %d", rec.Code)
	}
}

func TestImportExcelRejectsBadPayload(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/import/excel", map[string]string{"archivo": "no es base64"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
