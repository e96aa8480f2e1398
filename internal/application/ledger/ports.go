package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Es la única vía para obtener la superficie de escritura del log y de los saldos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		txRepo repository.StockTransactionTxRepository,
		balanceRepo repository.StockBalanceTxRepository,
	) error) error
}

// StockTotalCache caché opcional del stock total por producto.
// Invalidate avanza la versión del producto; SetTotal solo escribe si la versión
// leída antes de consultar la BD sigue vigente, así un total viejo no sobrevive a un commit.
type StockTotalCache interface {
	GetTotal(ctx context.Context, productID string) (decimal.Decimal, bool, error)
	Version(ctx context.Context, productID string) (int64, error)
	SetTotal(ctx context.Context, productID string, version int64, total decimal.Decimal) error
	Invalidate(ctx context.Context, productIDs ...string) error
}
