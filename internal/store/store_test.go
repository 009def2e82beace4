package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return New(database)
}

func TestCollectionsSaveReplacesAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := []Record{
		{ID: "a", Data: []byte(`{"nombre":"Uno"}`)},
		{ID: "b", Data: []byte(`{"nombre":"Dos"}`)},
		{ID: "c", Data: []byte(`{"nombre":"Tres"}`)},
	}
	if err := s.Save(ctx, CollectionProducts, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, CollectionProducts, first[1:]); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.Load(ctx, CollectionProducts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected records: %+v", got)
	}

	other, err := s.Load(ctx, CollectionClients)
	if err != nil {
		t.Fatalf("load other collection: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("collections leaked into each other: %+v", other)
	}
}

func TestLoadAllAndSaveAllRoundTripTypedValues(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := []Supplier{
		{ID: "s1", Name: "Acme", TaxID: "76.123.456-7"},
		{ID: "s2", Name: "Global Parts", TaxID: "77.000.111-2"},
	}
	if err := SaveAll(ctx, s, CollectionSuppliers, in, func(v Supplier) string { return v.ID }); err != nil {
		t.Fatalf("save all: %v", err)
	}

	out, err := LoadAll[Supplier](ctx, s, CollectionSuppliers)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(out) != 2 || out[0].Name != "Acme" || out[1].TaxID != "77.000.111-2" {
		t.Fatalf("unexpected suppliers: %+v", out)
	}
}

func TestClientValidationAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.SaveClient(ctx, Client{Name: "Sin rut", Email: "a@b.cl"}); err == nil {
		t.Fatalf("expected validation error for missing rut")
	}

	saved, err := s.SaveClient(ctx, Client{Name: "Minera Norte", Email: "compras@norte.cl", TaxID: "96.555.444-3"})
	if err != nil {
		t.Fatalf("save client: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt == "" || saved.Status != StatusActive {
		t.Fatalf("expected id, timestamp and active status, got %+v", saved)
	}
	if _, err := s.SaveClient(ctx, Client{Name: "Constructora Sur", Email: "info@sur.cl", TaxID: "78.111.222-9"}); err != nil {
		t.Fatalf("save client: %v", err)
	}

	byName, err := s.Clients(ctx, "minera")
	if err != nil {
		t.Fatalf("search clients: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != saved.ID {
		t.Fatalf("expected one match by name, got %+v", byName)
	}

	byTaxID, err := s.Clients(ctx, "78.111")
	if err != nil {
		t.Fatalf("search clients: %v", err)
	}
	if len(byTaxID) != 1 || byTaxID[0].Name != "Constructora Sur" {
		t.Fatalf("expected one match by rut, got %+v", byTaxID)
	}

	if err := s.Delete(ctx, CollectionClients, saved.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if err := s.Delete(ctx, CollectionClients, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveProductDefaultsKindAndCurrency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.SaveProduct(ctx, Product{Name: "Válvula", UnitCost: 12.5, Currency: "xyz"})
	if err != nil {
		t.Fatalf("save product: %v", err)
	}
	if p.Kind != ProductKindGood || p.Currency != pricing.CLP {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	var loaded Product
	if err := s.Get(ctx, CollectionProducts, p.ID, &loaded); err != nil {
		t.Fatalf("get product: %v", err)
	}
	if loaded.Name != "Válvula" || loaded.UnitCost != 12.5 {
		t.Fatalf("unexpected product: %+v", loaded)
	}

	if _, err := s.SaveProduct(ctx, Product{Name: "Malo", UnitCost: -1}); err == nil {
		t.Fatalf("expected error for negative cost")
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	st, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if st.VATPercent != 19 || st.MarginPercent != 20 || st.InputCurrency != pricing.CLP ||
		st.FreightType != pricing.FreightInternational || st.QuotePrefix != "COT" {
		t.Fatalf("unexpected defaults: %+v", st)
	}

	st.MarginPercent = 100
	if err := s.UpdateSettings(ctx, st); err == nil {
		t.Fatalf("expected margin of 100 to be rejected")
	}

	st.MarginPercent = 25
	st.DisplayCurrency = pricing.USD
	st.FreightType = pricing.FreightBoth
	if err := s.UpdateSettings(ctx, st); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got != st {
		t.Fatalf("expected %+v, got %+v", st, got)
	}
}

func TestRatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.LoadRates(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty cache, got %v", err)
	}

	fetched := time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC)
	table := RateTable{
		Rates:     pricing.Rates{pricing.CLP: 1, pricing.USD: 940.5, pricing.EUR: 1012.25},
		Source:    "mindicador",
		FetchedAt: fetched,
	}
	if err := s.SaveRates(ctx, table); err != nil {
		t.Fatalf("save rates: %v", err)
	}

	got, err := s.LoadRates(ctx)
	if err != nil {
		t.Fatalf("load rates: %v", err)
	}
	if got.Rates[pricing.USD] != 940.5 || got.Rates[pricing.EUR] != 1012.25 || got.Source != "mindicador" {
		t.Fatalf("unexpected rates: %+v", got)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Fatalf("expected fetched at %v, got %v", fetched, got.FetchedAt)
	}
}

func TestNextNumberIsMonotonicPerCounter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, want := range []string{"COT-00001", "COT-00002", "COT-00003"} {
		got, err := s.NextNumber(ctx, CounterQuotes, "COT")
		if err != nil {
			t.Fatalf("next number (iteration=%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}

	oc, err := s.NextNumber(ctx, CounterPurchaseOrders, "OC")
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if oc != "OC-00001" {
		t.Fatalf("expected independent counter, got %s", oc)
	}
}

func TestQuotesInsertGetAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	input := pricing.QuoteInput{
		MarginPercent: 20,
		Lines:         []pricing.LineInput{{ID: "l1", Name: "Bomba", Quantity: 2, UnitCost: 100}},
	}
	seed := []QuoteRecord{
		{Number: "COT-00001", Status: "borrador", ClientName: "Minera Norte", ClientTaxID: "96.555.444-3", IssuedOn: "2024-01-01"},
		{Number: "COT-00002", Status: "aprobada", ClientName: "Constructora Sur", ClientTaxID: "78.111.222-9", IssuedOn: "2024-01-02"},
		{Number: "COT-00003", Status: "aprobada", ClientName: "Minera Centro", ClientTaxID: "96.000.111-1", IssuedOn: "2024-01-03"},
	}
	for i := range seed {
		seed[i].Input = input
		seed[i].Result = pricing.Calculate(input)
		if err := s.InsertQuote(ctx, &seed[i]); err != nil {
			t.Fatalf("insert quote: %v", err)
		}
		if seed[i].ID == 0 {
			t.Fatalf("expected id to be set")
		}
	}

	got, err := s.GetQuote(ctx, seed[0].ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if got.Number != "COT-00001" || len(got.Input.Lines) != 1 || got.Result.Totals.Subtotal != 250 {
		t.Fatalf("unexpected quote: %+v", got)
	}

	all, err := s.ListQuotes(ctx, QuoteFilter{})
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(all) != 3 || all[0].Number != "COT-00003" || all[2].Number != "COT-00001" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	mineras, err := s.ListQuotes(ctx, QuoteFilter{Query: "Minera"})
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(mineras) != 2 {
		t.Fatalf("expected 2 quotes matching client name, got %d", len(mineras))
	}

	approved, err := s.ListQuotes(ctx, QuoteFilter{Query: "Minera", Status: "aprobada"})
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(approved) != 1 || approved[0].Number != "COT-00003" {
		t.Fatalf("expected only COT-00003, got %+v", approved)
	}

	if _, err := s.GetQuote(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuote(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	q := QuoteRecord{Number: "COT-00001", Status: "borrador", IssuedOn: "2024-01-01"}
	if err := s.InsertQuote(ctx, &q); err != nil {
		t.Fatalf("insert quote: %v", err)
	}
	q.Status = "enviada"
	q.Notes = "enviada por correo"
	if err := s.UpdateQuote(ctx, &q); err != nil {
		t.Fatalf("update quote: %v", err)
	}

	got, err := s.GetQuote(ctx, q.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if got.Status != "enviada" || got.Notes != "enviada por correo" {
		t.Fatalf("unexpected quote after update: %+v", got)
	}

	missing := QuoteRecord{ID: 42, Number: "X", IssuedOn: "2024-01-01"}
	if err := s.UpdateQuote(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
