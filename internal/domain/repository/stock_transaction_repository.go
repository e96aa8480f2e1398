package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransactionFilter filtros de listado; LocationID coincide con origen o destino.
type TransactionFilter struct {
	ProductID  string
	LocationID string
	Type       string
	Limit      int
	Offset     int
}

// PairTotal suma de deltas con signo del log para un par (producto, ubicación).
type PairTotal struct {
	ProductID  string
	LocationID string
	Total      decimal.Decimal
}

// StockTransactionReader lectura del Transaction Log.
type StockTransactionReader interface {
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockTransaction, error)
	// List ordena de más reciente a más antigua.
	List(ctx context.Context, filter TransactionFilter) ([]*entity.StockTransaction, error)
	// SumDeltasByPair reconstruye los saldos desde el log.
	SumDeltasByPair(ctx context.Context) ([]PairTotal, error)
}

// StockTransactionTxRepository log append-only: solo inserción, nunca update ni delete.
type StockTransactionTxRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
}
