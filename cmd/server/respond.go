package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Simplici0/cotizador/internal/importer"
	"github.com/Simplici0/cotizador/internal/mailer"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/store"
)

const maxBodyBytes = 10 << 20

// maxAmount bounds line and freight amounts accepted by the API.
const maxAmount = 1e15

var errValidation = errors.New("datos no válidos")

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v before writing the header, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "error interno"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errValidation),
		errors.Is(err, quote.ErrInvalidStatus),
		errors.Is(err, quote.ErrMissingClient),
		errors.Is(err, quote.ErrNoLines),
		errors.Is(err, importer.ErrEmptySheet),
		errors.Is(err, importer.ErrMissingColumn),
		errors.Is(err, mailer.ErrNoRecipient):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quote.ErrInvalidTransition),
		errors.Is(err, quote.ErrNotApproved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, mailer.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "error interno")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo JSON no válido")
		return false
	}
	return true
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errValidation, err)
}

func quoteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id de cotización", errValidation)
	}
	return id, nil
}

func checkNonNegative(value float64, field string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s debe ser numérico", errValidation, field)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s debe ser mayor o igual a 0", errValidation, field)
	}
	return nil
}

func checkAmount(value float64, field string) error {
	if err := checkNonNegative(value, field); err != nil {
		return err
	}
	if value > maxAmount {
		return fmt.Errorf("%w: %s excede el monto máximo permitido", errValidation, field)
	}
	return nil
}

func checkPercent(value float64, field string) error {
	if err := checkNonNegative(value, field); err != nil {
		return err
	}
	if value > 100 {
		return fmt.Errorf("%w: %s debe estar entre 0 y 100", errValidation, field)
	}
	return nil
}

func checkPositive(value float64, field string) error {
	if err := checkNonNegative(value, field); err != nil {
		return err
	}
	if value == 0 {
		return fmt.Errorf("%w: %s debe ser mayor a 0", errValidation, field)
	}
	return nil
}

// validateQuoteInput rejects values the form would never send. Pricing
// itself tolerates them, so library callers are unaffected.
func validateQuoteInput(in pricing.QuoteInput) error {
	if err := checkNonNegative(in.MarginPercent, "margen"); err != nil {
		return err
	}
	if in.VATRate != nil {
		if err := checkNonNegative(*in.VATRate, "iva"); err != nil {
			return err
		}
	}
	for i, l := range in.Lines {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		if err := checkPositive(l.Quantity, field("cantidad")); err != nil {
			return err
		}
		if err := checkAmount(l.UnitCost, field("costo_unitario")); err != nil {
			return err
		}
		if err := checkAmount(l.Quantity, field("cantidad")); err != nil {
			return err
		}
		if err := checkAmount(l.UnitCost*l.Quantity, field("costo_total")); err != nil {
			return err
		}
		if l.FinancingCostPercent != nil {
			if err := checkPercent(*l.FinancingCostPercent, field("costo_financiero")); err != nil {
				return err
			}
		}
		if l.FreightOverridePercent != nil {
			if err := checkPercent(*l.FreightOverridePercent, field("flete_porcentaje")); err != nil {
				return err
			}
		}
	}
	for i, it := range in.InternationalFreight {
		if err := checkAmount(it.EstimatedValue, fmt.Sprintf("flete_internacional[%d].valor_estimado", i)); err != nil {
			return err
		}
	}
	for i, it := range in.NationalFreight {
		if err := checkAmount(it.EstimatedValue, fmt.Sprintf("flete_nacional[%d].valor_estimado", i)); err != nil {
			return err
		}
	}
	return nil
}
