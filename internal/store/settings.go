package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// Settings are the quote defaults shared by every user.
type Settings struct {
	VATPercent      float64             `json:"iva"`
	MarginPercent   float64             `json:"margen"`
	InputCurrency   pricing.Currency    `json:"moneda_entrada"`
	DisplayCurrency pricing.Currency    `json:"moneda_pdf"`
	FreightType     pricing.FreightType `json:"tipo_flete"`
	QuotePrefix     string              `json:"prefijo"`
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	if s.VATPercent < 0 || s.VATPercent > 100 {
		return errors.New("iva debe estar entre 0 y 100")
	}
	if s.MarginPercent < 0 || s.MarginPercent >= 100 {
		return errors.New("margen debe ser mayor o igual a 0 y menor a 100")
	}
	if _, ok := pricing.ParseCurrency(string(s.InputCurrency)); !ok {
		return fmt.Errorf("moneda de entrada no soportada: %q", s.InputCurrency)
	}
	if _, ok := pricing.ParseCurrency(string(s.DisplayCurrency)); !ok {
		return fmt.Errorf("moneda de documento no soportada: %q", s.DisplayCurrency)
	}
	if pricing.ParseFreightType(string(s.FreightType)) != s.FreightType {
		return fmt.Errorf("tipo de flete no soportado: %q", s.FreightType)
	}
	if s.QuotePrefix == "" {
		return errors.New("prefijo es requerido")
	}
	return nil
}

// VATRate returns the VAT percentage as a fraction.
func (s Settings) VATRate() float64 {
	return s.VATPercent / 100
}

// EnsureSettings inserts the settings singleton when missing.
func (s *Store) EnsureSettings(ctx context.Context) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id) VALUES (1)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return false, fmt.Errorf("insert default settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert default settings: %w", err)
	}
	return affected > 0, nil
}

// Settings returns the singleton, creating it with defaults if needed.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	if _, err := s.EnsureSettings(ctx); err != nil {
		return Settings{}, err
	}

	var st Settings
	var input, display, freight string
	err := s.db.QueryRowContext(ctx, `
		SELECT vat_percent, margin_percent, input_currency, display_currency, freight_type, quote_prefix
		FROM settings
		WHERE id = 1
	`).Scan(
		&st.VATPercent,
		&st.MarginPercent,
		&input,
		&display,
		&freight,
		&st.QuotePrefix,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, fmt.Errorf("settings singleton not found")
		}
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}
	st.InputCurrency = pricing.Currency(input)
	st.DisplayCurrency = pricing.Currency(display)
	st.FreightType = pricing.FreightType(freight)
	return st, nil
}

// UpdateSettings validates and stores the singleton.
func (s *Store) UpdateSettings(ctx context.Context, st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if _, err := s.EnsureSettings(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE settings
		SET
			vat_percent = ?,
			margin_percent = ?,
			input_currency = ?,
			display_currency = ?,
			freight_type = ?,
			quote_prefix = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`,
		st.VATPercent,
		st.MarginPercent,
		string(st.InputCurrency),
		string(st.DisplayCurrency),
		string(st.FreightType),
		st.QuotePrefix,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
