package ledger

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Delta es la mutación de saldo que una transacción implica en una ubicación.
type Delta struct {
	LocationID string
	Amount     decimal.Decimal
}

// Deltas devuelve las mutaciones de saldo implicadas por el tipo:
// RECEIPT +q en to; ISSUE -q en from; TRANSFER -q en from y +q en to; ADJUSTMENT +q (con signo) en from.
// Asume una transacción ya validada.
func Deltas(tx *entity.StockTransaction) []Delta {
	switch tx.Type {
	case entity.TransactionTypeReceipt:
		return []Delta{{LocationID: tx.ToLocationID, Amount: tx.Quantity}}
	case entity.TransactionTypeIssue:
		return []Delta{{LocationID: tx.FromLocationID, Amount: tx.Quantity.Neg()}}
	case entity.TransactionTypeTransfer:
		return []Delta{
			{LocationID: tx.FromLocationID, Amount: tx.Quantity.Neg()},
			{LocationID: tx.ToLocationID, Amount: tx.Quantity},
		}
	case entity.TransactionTypeAdjustment:
		return []Delta{{LocationID: tx.FromLocationID, Amount: tx.Quantity}}
	}
	return nil
}

// LockOrder devuelve las ubicaciones a bloquear en orden ascendente de ID,
// para que dos traslados opuestos no se bloqueen mutuamente.
func LockOrder(deltas []Delta) []string {
	ids := make([]string, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.LocationID)
	}
	sort.Strings(ids)
	return ids
}

// CheckAvailable rechaza un delta que dejaría el saldo por debajo de cero.
func CheckAvailable(productID string, d Delta, available decimal.Decimal) error {
	if !d.Amount.IsNegative() {
		return nil
	}
	requested := d.Amount.Neg()
	if available.LessThan(requested) {
		return &domain.InsufficientStockError{
			ProductID:  productID,
			LocationID: d.LocationID,
			Available:  available,
			Requested:  requested,
		}
	}
	return nil
}
