package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database, Config{})
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 6 {
				t.Fatalf("expected 6 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE id = 1`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM exchange_rates`, nil, 3)
	assertCount(t, database, `SELECT COUNT(*) FROM exchange_rates WHERE currency = ? AND rate = ?`, []any{"USD", 900}, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM counters WHERE name = ? AND value = 0`, store.CounterQuotes, 1)
}

func TestRunKeepsExistingRatesAndCounters(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "seed-keep.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	st := store.New(database)
	if _, err := st.NextNumber(ctx, store.CounterQuotes, "COT"); err != nil {
		t.Fatalf("next number: %v", err)
	}
	if err := st.SaveRates(ctx, store.RateTable{Rates: pricing.Rates{pricing.USD: 950}, Source: "mindicador"}); err != nil {
		t.Fatalf("save rates: %v", err)
	}

	stats, err := Run(ctx, database, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 4 {
		t.Fatalf("expected settings, 2 rates and 1 counter, got %d inserts", stats.Inserts)
	}

	table, err := st.LoadRates(ctx)
	if err != nil {
		t.Fatalf("load rates: %v", err)
	}
	if table.Rates[pricing.USD] != 950 {
		t.Fatalf("seed overwrote stored rate: %+v", table.Rates)
	}
	next, err := st.NextNumber(ctx, store.CounterQuotes, "COT")
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if next != "COT-00002" {
		t.Fatalf("seed reset the quote counter, got %s", next)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
