package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de stock.
const (
	TransactionTypeReceipt    = "RECEIPT"    // entrada a toLocation
	TransactionTypeIssue      = "ISSUE"      // salida desde fromLocation
	TransactionTypeTransfer   = "TRANSFER"   // traslado fromLocation -> toLocation
	TransactionTypeAdjustment = "ADJUSTMENT" // ajuste con signo en fromLocation
)

// StockTransaction es un hecho inmutable del ledger. Nunca se actualiza ni se borra;
// las correcciones son transacciones compensatorias nuevas.
type StockTransaction struct {
	ID             string
	ProductID      string
	FromLocationID string // vacío = ausente
	ToLocationID   string // vacío = ausente
	Type           string
	Quantity       decimal.Decimal // magnitud positiva; con signo solo en ADJUSTMENT
	ReferenceNo    string
	Remarks        string
	CreatedBy      string
	CreatedAt      time.Time
}
