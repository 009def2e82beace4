package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// Counter names.
const (
	CounterQuotes         = "cotizaciones"
	CounterPurchaseOrders = "ordenes_compra"
)

// QuoteRecord is a stored quote with the input it was priced from and the
// result snapshot taken at the last write.
type QuoteRecord struct {
	ID            int64              `json:"id"`
	Number        string             `json:"numero"`
	Status        string             `json:"estado"`
	ClientID      string             `json:"cliente_id,omitempty"`
	ClientName    string             `json:"cliente"`
	ClientTaxID   string             `json:"rut_cliente,omitempty"`
	ClientEmail   string             `json:"email_cliente,omitempty"`
	IssuedOn      string             `json:"fecha"`
	Reference     string             `json:"referencia,omitempty"`
	Notes         string             `json:"notas,omitempty"`
	LegacyFreight float64            `json:"flete,omitempty"`
	Input         pricing.QuoteInput `json:"entrada"`
	Result        pricing.Result     `json:"resultado"`
	CreatedAt     time.Time          `json:"creada"`
	UpdatedAt     time.Time          `json:"actualizada"`
}

// QuoteFilter narrows ListQuotes. Empty fields match everything.
type QuoteFilter struct {
	Query  string
	Status string
}

// NextNumber increments the named counter and formats it with prefix.
func (s *Store) NextNumber(ctx context.Context, counter, prefix string) (string, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`, counter).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", counter, err)
	}
	return fmt.Sprintf("%s-%05d", prefix, n), nil
}

// InsertQuote stores a new quote and sets its id and timestamps.
func (s *Store) InsertQuote(ctx context.Context, q *QuoteRecord) error {
	input, totals, err := encodeQuote(q)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			number, status, client_id, client_name, client_tax_id, client_email,
			issued_on, reference, notes, legacy_freight, input_json, totals_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.Number, q.Status, q.ClientID, q.ClientName, q.ClientTaxID, q.ClientEmail,
		q.IssuedOn, q.Reference, q.Notes, q.LegacyFreight, input, totals,
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert quote %s: %w", q.Number, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert quote %s: %w", q.Number, err)
	}
	q.ID = id
	q.CreatedAt = now
	q.UpdatedAt = now
	return nil
}

// UpdateQuote rewrites every mutable column of an existing quote.
func (s *Store) UpdateQuote(ctx context.Context, q *QuoteRecord) error {
	input, totals, err := encodeQuote(q)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET
			status = ?,
			client_id = ?,
			client_name = ?,
			client_tax_id = ?,
			client_email = ?,
			issued_on = ?,
			reference = ?,
			notes = ?,
			legacy_freight = ?,
			input_json = ?,
			totals_json = ?,
			updated_at = ?
		WHERE id = ?
	`,
		q.Status, q.ClientID, q.ClientName, q.ClientTaxID, q.ClientEmail,
		q.IssuedOn, q.Reference, q.Notes, q.LegacyFreight, input, totals,
		now.Format(timeLayout), q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quote %d: %w", q.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update quote %d: %w", q.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	q.UpdatedAt = now
	return nil
}

const quoteColumns = `
	id, number, status, client_id, client_name, client_tax_id, client_email,
	issued_on, reference, notes, legacy_freight, input_json, totals_json,
	created_at, updated_at
`

// GetQuote loads one quote by id.
func (s *Store) GetQuote(ctx context.Context, id int64) (QuoteRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QuoteRecord{}, ErrNotFound
	}
	if err != nil {
		return QuoteRecord{}, fmt.Errorf("get quote %d: %w", id, err)
	}
	return q, nil
}

// ListQuotes returns quotes newest first.
func (s *Store) ListQuotes(ctx context.Context, f QuoteFilter) ([]QuoteRecord, error) {
	query := strings.TrimSpace(f.Query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE (? = '' OR number LIKE ? OR client_name LIKE ? OR client_tax_id LIKE ?)
			AND (? = '' OR status = ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search, search, f.Status, f.Status)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteRecord, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (QuoteRecord, error) {
	var q QuoteRecord
	var input, totals, created, updated string
	if err := row.Scan(
		&q.ID, &q.Number, &q.Status, &q.ClientID, &q.ClientName, &q.ClientTaxID, &q.ClientEmail,
		&q.IssuedOn, &q.Reference, &q.Notes, &q.LegacyFreight, &input, &totals,
		&created, &updated,
	); err != nil {
		return QuoteRecord{}, err
	}
	if err := json.Unmarshal([]byte(input), &q.Input); err != nil {
		return QuoteRecord{}, fmt.Errorf("decode quote %s input: %w", q.Number, err)
	}
	if err := json.Unmarshal([]byte(totals), &q.Result); err != nil {
		return QuoteRecord{}, fmt.Errorf("decode quote %s totals: %w", q.Number, err)
	}
	q.CreatedAt, _ = parseTimestamp(created)
	q.UpdatedAt, _ = parseTimestamp(updated)
	return q, nil
}

func encodeQuote(q *QuoteRecord) (string, string, error) {
	input, err := json.Marshal(q.Input)
	if err != nil {
		return "", "", fmt.Errorf("encode quote input: %w", err)
	}
	totals, err := json.Marshal(q.Result)
	if err != nil {
		return "", "", fmt.Errorf("encode quote totals: %w", err)
	}
	return string(input), string(totals), nil
}
