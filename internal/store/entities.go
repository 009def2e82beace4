package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// Record status values for clients and suppliers.
const (
	StatusActive   = "activo"
	StatusInactive = "inactivo"
)

// Client is a customer company or person.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"nombre"`
	Email     string `json:"email"`
	TaxID     string `json:"rut"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
	Status    string `json:"estado"`
	CreatedAt string `json:"fechaCreacion"`
}

// Validate checks the fields required to quote a client.
func (c Client) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "nombre")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.TaxID) == "" {
		missing = append(missing, "rut")
	}
	if len(missing) > 0 {
		return fmt.Errorf("campos obligatorios: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Supplier is a vendor of products or logistics.
type Supplier struct {
	ID           string `json:"id"`
	Name         string `json:"nombre"`
	Email        string `json:"email,omitempty"`
	TaxID        string `json:"rut"`
	Phone        string `json:"telefono,omitempty"`
	Address      string `json:"direccion,omitempty"`
	Contact      string `json:"contacto,omitempty"`
	Category     string `json:"categoria,omitempty"`
	LeadTimeDays int    `json:"plazo_dias,omitempty"`
	Status       string `json:"estado"`
	CreatedAt    string `json:"fechaCreacion"`
}

// Validate checks the supplier identity fields.
func (s Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("nombre es requerido")
	}
	if strings.TrimSpace(s.TaxID) == "" {
		return errors.New("rut es requerido")
	}
	return nil
}

// Product kinds.
const (
	ProductKindGood    = "producto"
	ProductKindService = "servicio"
)

// Product is a catalog entry with its purchase cost.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"nombre"`
	Description   string           `json:"descripcion,omitempty"`
	Kind          string           `json:"tipo"`
	Category      string           `json:"categoria,omitempty"`
	Currency      pricing.Currency `json:"moneda"`
	UnitCost      float64          `json:"valor_unitario_origen"`
	UnitCostCLP   float64          `json:"valor_unitario_clp,omitempty"`
	Quantity      float64          `json:"cantidad,omitempty"`
	SupplierTaxID string           `json:"proveedor_rut,omitempty"`
	CreatedAt     string           `json:"fechaCreacion"`
}

// Validate checks the product fields.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("nombre es requerido")
	}
	if p.UnitCost < 0 {
		return errors.New("valor unitario debe ser mayor o igual a 0")
	}
	if p.Kind != "" && p.Kind != ProductKindGood && p.Kind != ProductKindService {
		return errors.New("tipo debe ser producto o servicio")
	}
	return nil
}

// Purchase order status values.
const (
	OrderPending   = "pendiente"
	OrderApproved  = "aprobada"
	OrderRejected  = "rechazada"
	OrderCompleted = "completada"
)

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	Quantity float64 `json:"cantidad"`
	Price    float64 `json:"precio"`
	Total    float64 `json:"total"`
}

// PurchaseOrder is issued from an approved quote.
type PurchaseOrder struct {
	ID          string              `json:"id"`
	Number      string              `json:"numero"`
	ClientName  string              `json:"cliente"`
	ClientTaxID string              `json:"rut_cliente,omitempty"`
	Items       []PurchaseOrderItem `json:"items"`
	Subtotal    float64             `json:"subtotal"`
	VAT         float64             `json:"iva"`
	Total       float64             `json:"total"`
	Date        string              `json:"fecha"`
	CreatedAt   string              `json:"fechaCreacion"`
	Status      string              `json:"estado"`
	SourceQuote string              `json:"cotizacionOriginal,omitempty"`
}

func stamp(id *string, created *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if *created == "" {
		*created = time.Now().UTC().Format(time.RFC3339)
	}
}

// SaveClient validates and upserts a client.
func (s *Store) SaveClient(ctx context.Context, c Client) (Client, error) {
	if err := c.Validate(); err != nil {
		return Client{}, err
	}
	stamp(&c.ID, &c.CreatedAt)
	if c.Status == "" {
		c.Status = StatusActive
	}
	return c, s.Put(ctx, CollectionClients, c.ID, c)
}

// Clients lists clients matching query on name, email or tax id.
func (s *Store) Clients(ctx context.Context, query string) ([]Client, error) {
	all, err := LoadAll[Client](ctx, s, CollectionClients)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}
	out := make([]Client, 0, len(all))
	for _, c := range all {
		if containsFold(c.Name, query) || containsFold(c.Email, query) || strings.Contains(c.TaxID, query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// SaveSupplier validates and upserts a supplier.
func (s *Store) SaveSupplier(ctx context.Context, sup Supplier) (Supplier, error) {
	if err := sup.Validate(); err != nil {
		return Supplier{}, err
	}
	stamp(&sup.ID, &sup.CreatedAt)
	if sup.Status == "" {
		sup.Status = StatusActive
	}
	return sup, s.Put(ctx, CollectionSuppliers, sup.ID, sup)
}

// Suppliers lists suppliers matching query on name, email, tax id or category.
func (s *Store) Suppliers(ctx context.Context, query string) ([]Supplier, error) {
	all, err := LoadAll[Supplier](ctx, s, CollectionSuppliers)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}
	out := make([]Supplier, 0, len(all))
	for _, sup := range all {
		if containsFold(sup.Name, query) || containsFold(sup.Email, query) ||
			strings.Contains(sup.TaxID, query) || containsFold(sup.Category, query) {
			out = append(out, sup)
		}
	}
	return out, nil
}

// SaveProduct validates and upserts a product.
func (s *Store) SaveProduct(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	stamp(&p.ID, &p.CreatedAt)
	if p.Kind == "" {
		p.Kind = ProductKindGood
	}
	if _, ok := pricing.ParseCurrency(string(p.Currency)); !ok {
		p.Currency = pricing.CLP
	}
	return p, s.Put(ctx, CollectionProducts, p.ID, p)
}

// Products lists products matching query on name or category.
func (s *Store) Products(ctx context.Context, query string) ([]Product, error) {
	all, err := LoadAll[Product](ctx, s, CollectionProducts)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if containsFold(p.Name, query) || containsFold(p.Category, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// SavePurchaseOrder upserts a purchase order.
func (s *Store) SavePurchaseOrder(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	stamp(&po.ID, &po.CreatedAt)
	if po.Status == "" {
		po.Status = OrderPending
	}
	return po, s.Put(ctx, CollectionPurchaseOrders, po.ID, po)
}

// PurchaseOrders lists every purchase order.
func (s *Store) PurchaseOrders(ctx context.Context) ([]PurchaseOrder, error) {
	return LoadAll[PurchaseOrder](ctx, s, CollectionPurchaseOrders)
}
