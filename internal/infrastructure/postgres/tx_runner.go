package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	iso  pgx.TxIsoLevel
}

// NewTxRunner construye el runner con el pool y el nivel de aislamiento
// ("read_committed" por defecto; el bloqueo FOR UPDATE del saldo cubre la carrera de lectura-escritura).
func NewTxRunner(pool *pgxpool.Pool, isolation string) *TxRunner {
	return &TxRunner{pool: pool, iso: IsoLevel(isolation)}
}

// IsoLevel traduce el nombre de configuración al nivel de pgx.
func IsoLevel(name string) pgx.TxIsoLevel {
	switch name {
	case "repeatable_read":
		return pgx.RepeatableRead
	case "serializable":
		return pgx.Serializable
	default:
		return pgx.ReadCommitted
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallos de serialización y deadlocks salen como domain.ErrConcurrencyConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(
	txRepo repository.StockTransactionTxRepository,
	balanceRepo repository.StockBalanceTxRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.iso})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStockTransactionRepository(tx), NewStockBalanceRepository(tx)); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
