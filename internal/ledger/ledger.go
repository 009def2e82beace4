// Package ledger derives accounting entries, a cash-flow schedule and a sales
// register from approved quotes. Amounts are in Chilean pesos.
package ledger

import (
	"github.com/shopspring/decimal"
)

// VATRate is the IVA rate used by the accounting entries.
var VATRate = decimal.RequireFromString("0.19")

// Account is one line of a journal entry. Balance is Debit - Credit.
type Account struct {
	Name    string          `json:"cuenta"`
	Debit   decimal.Decimal `json:"debe"`
	Credit  decimal.Decimal `json:"haber"`
	Balance decimal.Decimal `json:"saldo"`
}

// Entry is a journal entry. Difference should be zero for a balanced entry.
type Entry struct {
	Title       string          `json:"titulo"`
	Accounts    []Account       `json:"cuentas"`
	TotalDebit  decimal.Decimal `json:"total_debe"`
	TotalCredit decimal.Decimal `json:"total_haber"`
	Difference  decimal.Decimal `json:"diferencia"`
}

func newAccount(name string, debit, credit decimal.Decimal) Account {
	return Account{Name: name, Debit: debit, Credit: credit, Balance: debit.Sub(credit)}
}

func newEntry(title string, accounts ...Account) Entry {
	e := Entry{Title: title, Accounts: accounts, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range accounts {
		e.TotalDebit = e.TotalDebit.Add(a.Debit)
		e.TotalCredit = e.TotalCredit.Add(a.Credit)
	}
	e.Difference = e.TotalDebit.Sub(e.TotalCredit)
	return e
}

// PurchaseEntry books the purchase of goods at net cost.
func PurchaseEntry(net decimal.Decimal) Entry {
	vat := net.Mul(VATRate)
	total := net.Add(vat)
	return newEntry("Compra de producto",
		newAccount("Costo de Venta", net, decimal.Zero),
		newAccount("IVA Crédito Fiscal", vat, decimal.Zero),
		newAccount("Proveedores", decimal.Zero, total),
	)
}

// FreightEntry books freight expenses at net cost.
func FreightEntry(net decimal.Decimal) Entry {
	vat := net.Mul(VATRate)
	total := net.Add(vat)
	return newEntry("Costo de flete",
		newAccount("Gastos por Flete", net, decimal.Zero),
		newAccount("IVA Crédito Fiscal", vat, decimal.Zero),
		newAccount("Proveedores", decimal.Zero, total),
	)
}

// SaleEntry books the sale. Net and VAT are rounded to the peso and the
// client debit is floored, which reproduces the one-peso mismatch seen in the
// company's books (for example 229.496 against 229.497). The resulting
// Difference is kept rather than corrected.
func SaleEntry(netIncome decimal.Decimal) Entry {
	net := netIncome.Round(0)
	vat := net.Mul(VATRate).Round(0)
	clientDebit := net.Add(vat).Floor()
	return newEntry("Venta",
		newAccount("Cliente", clientDebit, decimal.Zero),
		newAccount("Ingreso por Venta", decimal.Zero, net),
		newAccount("IVA Débito Fiscal", decimal.Zero, vat),
	)
}

// Flow is one month of the simulated cash flow.
type Flow struct {
	Month   int             `json:"mes"`
	Concept string          `json:"concepto"`
	Amount  decimal.Decimal `json:"monto"`
}

// CashFlow returns the simulated monthly cash flow and its net result.
func CashFlow(netPurchase, netFreight, saleTotal, saleVAT decimal.Decimal) ([]Flow, decimal.Decimal) {
	purchaseVAT := netPurchase.Mul(VATRate)
	flows := []Flow{
		{Month: 1, Concept: "Compra producto (salida)", Amount: netPurchase.Add(purchaseVAT).Neg()},
		{Month: 2, Concept: "IVA crédito compra (entrada)", Amount: purchaseVAT},
		{Month: 4, Concept: "Pago flete (salida)", Amount: netFreight.Add(netFreight.Mul(VATRate)).Neg()},
		{Month: 5, Concept: "Cobro venta (entrada)", Amount: saleTotal},
		{Month: 6, Concept: "Pago IVA débito (salida)", Amount: saleVAT.Neg()},
	}

	total := decimal.Zero
	for _, f := range flows {
		total = total.Add(f.Amount)
	}
	return flows, total
}
