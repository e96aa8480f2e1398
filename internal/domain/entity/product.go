package entity

import "github.com/shopspring/decimal"

// Product es la vista del catálogo externo que necesita el ledger.
// ReorderLevel solo lo usa la fachada de consultas (alertas de reorden).
type Product struct {
	ID           string
	Name         string
	SKU          string
	ReorderLevel decimal.Decimal
}
