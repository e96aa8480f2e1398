package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance es el saldo materializado de un producto en una ubicación.
// Siempre igual a la suma de los deltas de las transacciones confirmadas para el par.
type StockBalance struct {
	ProductID   string
	LocationID  string
	Quantity    decimal.Decimal
	LastUpdated time.Time
}
