package seed

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/rates"
	"github.com/Simplici0/cotizador/internal/store"
)

// Config contains the values required by startup seed.
type Config struct {
	// Rates is the fallback table stored when none is cached yet.
	Rates pricing.Rates
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	if len(cfg.Rates) == 0 {
		cfg.Rates = pricing.DefaultRates()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSettings(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureRates(ctx, tx, cfg.Rates, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	for _, counter := range []string{store.CounterQuotes, store.CounterPurchaseOrders} {
		if err := ensureCounter(ctx, tx, counter, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO settings (id) VALUES (1)`); err != nil {
		return fmt.Errorf("insert settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureRates(ctx context.Context, tx *sql.Tx, table pricing.Rates, stats *Stats) error {
	currencies := make([]string, 0, len(table))
	for cur := range table {
		currencies = append(currencies, string(cur))
	}
	sort.Strings(currencies)

	for _, cur := range currencies {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM exchange_rates WHERE currency = ? LIMIT 1)`, cur).Scan(&exists); err != nil {
			return fmt.Errorf("check rate %s existence: %w", cur, err)
		}
		if exists {
			continue
		}

		// A zero fetched_at keeps the seeded table stale so the first use refreshes it.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exchange_rates (currency, rate, source, fetched_at)
			VALUES (?, ?, ?, ?)
		`, cur, table[pricing.Currency(cur)], rates.SourceDefault, "0001-01-01 00:00:00"); err != nil {
			return fmt.Errorf("insert default rate %s: %w", cur, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureCounter(ctx context.Context, tx *sql.Tx, name string, stats *Stats) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 0)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return fmt.Errorf("insert counter %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert counter %s: %w", name, err)
	}
	stats.Inserts += int(affected)
	return nil
}
