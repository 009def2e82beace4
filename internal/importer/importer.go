// Package importer loads suppliers and products from the purchasing
// spreadsheet: one row per product with its supplier columns.
package importer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

// Spreadsheet column labels.
const (
	ColSupplierName  = "Nombre Proveedor"
	ColSupplierTaxID = "Rut Proveedor"
	ColLeadTime      = "Plazo Días"
	ColProduct       = "Producto"
	ColQuantity      = "Cantidad"
	ColCurrency      = "Moneda"
	ColUnitOrigin    = "Valor Unitario ORIGEN"
	ColUnitCLP       = "Valor Unitario CLP"
	ColNet           = "Valor Neto"
	ColVAT           = "Valor IVA"
	ColTotal         = "Valor Total"
)

// Columns lists every recognised header in spreadsheet order.
var Columns = []string{
	ColSupplierName, ColSupplierTaxID, ColLeadTime, ColProduct, ColQuantity,
	ColCurrency, ColUnitOrigin, ColUnitCLP, ColNet, ColVAT, ColTotal,
}

var (
	ErrEmptySheet    = errors.New("el archivo debe tener encabezado y al menos una fila de datos")
	ErrMissingColumn = errors.New("falta la columna Producto")
)

// RowError is a field-level problem on one spreadsheet row.
type RowError struct {
	Row     int    `json:"fila"`
	Field   string `json:"campo"`
	Message string `json:"mensaje"`
}

// Result is the parsed content of a spreadsheet.
type Result struct {
	Suppliers []store.Supplier `json:"proveedores"`
	Products  []store.Product  `json:"productos"`
	TotalRows int              `json:"filas"`
	ValidRows int              `json:"filas_validas"`
	Errors    []RowError       `json:"errores"`
}

// ParseBase64 decodes a base64 workbook and parses it.
func ParseBase64(encoded string) (Result, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Result{}, fmt.Errorf("decode base64 archivo: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Parse reads the first sheet of an xlsx workbook.
func Parse(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return Result{}, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return Result{}, ErrEmptySheet
	}
	return parseRows(rows[0], rows[1:])
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "")
}

func parseRows(header []string, rows [][]string) (Result, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	if _, ok := index[normalizeHeader(ColProduct)]; !ok {
		return Result{}, ErrMissingColumn
	}

	res := Result{
		Suppliers: make([]store.Supplier, 0),
		Products:  make([]store.Product, 0),
		Errors:    make([]RowError, 0),
	}
	seen := make(map[string]bool)

	for i, row := range rows {
		rowNum := i + 2
		cell := func(col string) string {
			idx, ok := index[normalizeHeader(col)]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if blank(row) {
			continue
		}
		res.TotalRows++

		var rowErrors []RowError
		fail := func(field, msg string) {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Field: field, Message: msg})
		}
		number := func(col string, pesos bool) float64 {
			v, err := parseAmount(cell(col), pesos)
			if err != nil {
				fail(col, "debe ser un número")
				return 0
			}
			if v < 0 {
				fail(col, "debe ser mayor o igual a 0")
				return 0
			}
			return v
		}

		name := cell(ColProduct)
		if name == "" {
			fail(ColProduct, "es requerido")
		}
		currency := pricing.CLP
		if raw := cell(ColCurrency); raw != "" {
			c, ok := pricing.ParseCurrency(raw)
			if !ok {
				fail(ColCurrency, "debe ser CLP, USD o EUR")
			}
			currency = c
		}
		quantity := number(ColQuantity, false)
		unitOrigin := number(ColUnitOrigin, currency == pricing.CLP)
		unitCLP := number(ColUnitCLP, true)
		leadTime := number(ColLeadTime, false)

		supplierName := cell(ColSupplierName)
		taxID := cell(ColSupplierTaxID)
		if supplierName != "" && taxID == "" {
			fail(ColSupplierTaxID, "es requerido cuando hay proveedor")
		}

		if len(rowErrors) > 0 {
			res.Errors = append(res.Errors, rowErrors...)
			continue
		}
		res.ValidRows++

		if unitOrigin == 0 && unitCLP > 0 {
			unitOrigin = unitCLP
			currency = pricing.CLP
		}
		res.Products = append(res.Products, store.Product{
			Name:          name,
			Kind:          store.ProductKindGood,
			Currency:      currency,
			UnitCost:      unitOrigin,
			UnitCostCLP:   unitCLP,
			Quantity:      quantity,
			SupplierTaxID: taxID,
		})

		if taxID != "" && !seen[taxID] {
			seen[taxID] = true
			if supplierName == "" {
				supplierName = taxID
			}
			res.Suppliers = append(res.Suppliers, store.Supplier{
				Name:         supplierName,
				TaxID:        taxID,
				LeadTimeDays: int(leadTime),
			})
		}
	}
	return res, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseAmount reads plain and Chilean-formatted numbers ("$ 1.234,5"). With
// pesos set, a single dot followed by exactly three digits ("1.500") is a
// thousands separator, since peso amounts carry no decimals.
func parseAmount(raw string, pesos bool) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, nil
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case pesos && strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") == 4:
		s = strings.Replace(s, ".", "", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// Repository is where imported records are saved.
type Repository interface {
	Suppliers(ctx context.Context, query string) ([]store.Supplier, error)
	SaveSupplier(ctx context.Context, s store.Supplier) (store.Supplier, error)
	SaveProduct(ctx context.Context, p store.Product) (store.Product, error)
}

// Applied counts what Apply wrote.
type Applied struct {
	SuppliersCreated int `json:"proveedores_creados"`
	SuppliersUpdated int `json:"proveedores_actualizados"`
	Products         int `json:"productos"`
}

// Apply stores the parsed records. Suppliers already known by tax id are
// updated in place.
func Apply(ctx context.Context, repo Repository, res Result) (Applied, error) {
	var applied Applied

	existing, err := repo.Suppliers(ctx, "")
	if err != nil {
		return applied, fmt.Errorf("load suppliers: %w", err)
	}
	byTaxID := make(map[string]store.Supplier, len(existing))
	for _, s := range existing {
		byTaxID[s.TaxID] = s
	}

	for _, s := range res.Suppliers {
		if current, ok := byTaxID[s.TaxID]; ok {
			current.Name = s.Name
			if s.LeadTimeDays > 0 {
				current.LeadTimeDays = s.LeadTimeDays
			}
			s = current
			applied.SuppliersUpdated++
		} else {
			applied.SuppliersCreated++
		}
		if _, err := repo.SaveSupplier(ctx, s); err != nil {
			return applied, fmt.Errorf("save supplier %s: %w", s.TaxID, err)
		}
	}

	for _, p := range res.Products {
		if _, err := repo.SaveProduct(ctx, p); err != nil {
			return applied, fmt.Errorf("save product %s: %w", p.Name, err)
		}
		applied.Products++
	}
	return applied, nil
}
