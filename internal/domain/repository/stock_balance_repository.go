package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BalanceWithCatalog fila de saldo enriquecida con los datos de catálogo que usan las alertas de reorden.
type BalanceWithCatalog struct {
	ProductID    string
	ProductName  string
	SKU          string
	ReorderLevel decimal.Decimal
	LocationID   string
	LocationName string
	Quantity     decimal.Decimal
}

// StockBalanceReader lectura del Balance Store. Seguro para lectores concurrentes.
type StockBalanceReader interface {
	// Get devuelve (nil, nil) si el par nunca fue tocado.
	Get(ctx context.Context, productID, locationID string) (*entity.StockBalance, error)
	TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockBalance, error)
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockBalance, error)
	ListWithCatalog(ctx context.Context) ([]BalanceWithCatalog, error)
}

// StockBalanceTxRepository superficie de escritura del Balance Store.
// Solo se obtiene dentro de TxRunner.Run: UpsertDelta nunca se invoca fuera de la unidad atómica.
type StockBalanceTxRepository interface {
	StockBalanceReader
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE); saldo cero si no existe.
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockBalance, error)
	// UpsertDelta crea la fila con quantity = delta o suma delta a la existente.
	UpsertDelta(ctx context.Context, productID, locationID string, delta decimal.Decimal, at time.Time) (*entity.StockBalance, error)
}
