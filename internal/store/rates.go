package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// RateTable is a stored exchange rate table with its origin.
type RateTable struct {
	Rates     pricing.Rates `json:"tasas"`
	Source    string        `json:"fuente"`
	FetchedAt time.Time     `json:"fecha"`
}

// SaveRates replaces the cached exchange rates.
func (s *Store) SaveRates(ctx context.Context, t RateTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save rates: %w", err)
	}
	fetched := t.FetchedAt.UTC().Format(timeLayout)
	for cur, rate := range t.Rates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exchange_rates (currency, rate, source, fetched_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(currency) DO UPDATE SET
				rate = excluded.rate,
				source = excluded.source,
				fetched_at = excluded.fetched_at
		`, string(cur), rate, t.Source, fetched)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert rate %s: %w", cur, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save rates: %w", err)
	}
	return nil
}

// LoadRates returns the cached table. ErrNotFound means nothing is cached.
func (s *Store) LoadRates(ctx context.Context) (RateTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency, rate, source, fetched_at
		FROM exchange_rates
		ORDER BY currency
	`)
	if err != nil {
		return RateTable{}, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	t := RateTable{Rates: pricing.Rates{}}
	for rows.Next() {
		var cur, source, fetched string
		var rate float64
		if err := rows.Scan(&cur, &rate, &source, &fetched); err != nil {
			return RateTable{}, fmt.Errorf("scan rate: %w", err)
		}
		t.Rates[pricing.Currency(cur)] = rate
		t.Source = source
		if ts, ok := parseTimestamp(fetched); ok && ts.After(t.FetchedAt) {
			t.FetchedAt = ts
		}
	}
	if err := rows.Err(); err != nil {
		return RateTable{}, fmt.Errorf("iterate rates: %w", err)
	}
	if len(t.Rates) == 0 {
		return RateTable{}, ErrNotFound
	}
	return t, nil
}
