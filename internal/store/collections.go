package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection names shared with the original browser storage keys.
const (
	CollectionClients        = "clientes"
	CollectionSuppliers      = "proveedores"
	CollectionProducts       = "productos"
	CollectionPurchaseOrders = "ordenes_compra"
)

// Record is one stored document of a collection.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Collections loads and saves whole named collections of records.
type Collections interface {
	Load(ctx context.Context, name string) ([]Record, error)
	Save(ctx context.Context, name string, records []Record) error
}

var _ Collections = (*Store)(nil)

// Load returns every record of a collection in insertion order.
func (s *Store) Load(ctx context.Context, name string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data
		FROM records
		WHERE collection = ?
		ORDER BY created_at, rowid
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		var data string
		if err := rows.Scan(&r.ID, &data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", name, err)
		}
		r.Data = json.RawMessage(data)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	return records, nil
}

// Save replaces the content of a collection with records.
func (s *Store) Save(ctx context.Context, name string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear %s: %w", name, err)
	}
	now := time.Now().UTC()
	for i, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		// Preserve ordering with strictly increasing timestamps.
		created := now.Add(time.Duration(i) * time.Microsecond).Format(timeLayout)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (collection, id, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, name, r.ID, string(r.Data), created, created); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s record %s: %w", name, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save %s: %w", name, err)
	}
	return nil
}

// Put inserts or replaces one record.
func (s *Store) Put(ctx context.Context, name, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", name, err)
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, name, id, string(data), now, now)
	if err != nil {
		return fmt.Errorf("upsert %s record %s: %w", name, id, err)
	}
	return nil
}

// Get decodes one record into v.
func (s *Store) Get(ctx context.Context, name, id string, v any) error {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE collection = ? AND id = ?`, name, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query %s record %s: %w", name, id, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode %s record %s: %w", name, id, err)
	}
	return nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, name, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", name, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", name, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadAll decodes a whole collection into typed values.
func LoadAll[T any](ctx context.Context, c Collections, name string) ([]T, error) {
	records, err := c.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s record %s: %w", name, r.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveAll encodes typed values and replaces the collection. idOf extracts each id.
func SaveAll[T any](ctx context.Context, c Collections, name string, values []T, idOf func(T) string) error {
	records := make([]Record, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", name, err)
		}
		records = append(records, Record{ID: idOf(v), Data: data})
	}
	return c.Save(ctx, name, records)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

const timeLayout = "2006-01-02 15:04:05.000000"

// parseTimestamp reads DATETIME columns, which the driver may hand back
// either as stored text or as RFC 3339.
func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, timeLayout, time.DateTime} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
