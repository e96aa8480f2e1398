package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockTransactionTxRepository = (*StockTransactionRepo)(nil)
	_ repository.StockTransactionReader       = (*StockTransactionRepo)(nil)
)

// StockTransactionRepo Transaction Log sobre stock_transactions. Solo INSERT y SELECT.
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

const transactionColumns = `id, product_id, from_location_id, to_location_id, type,
	quantity, reference_no, remarks, created_by, created_at`

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanTransaction(row pgx.Row) (*entity.StockTransaction, error) {
	var (
		t        entity.StockTransaction
		from, to *string
	)
	if err := row.Scan(&t.ID, &t.ProductID, &from, &to, &t.Type,
		&t.Quantity, &t.ReferenceNo, &t.Remarks, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	if from != nil {
		t.FromLocationID = *from
	}
	if to != nil {
		t.ToLocationID = *to
	}
	return &t, nil
}

// Create inserta la transacción. El log no expone update ni delete.
func (r *StockTransactionRepo) Create(ctx context.Context, t *entity.StockTransaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.ProductID, nullable(t.FromLocationID), nullable(t.ToLocationID), t.Type,
		t.Quantity, t.ReferenceNo, t.Remarks, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

// GetByID obtiene una transacción; (nil, nil) si no existe.
func (r *StockTransactionRepo) GetByID(ctx context.Context, id string) (*entity.StockTransaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM stock_transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transaction: %w", err)
	}
	return t, nil
}

// List transacciones filtradas, de más reciente a más antigua (seq desempata created_at).
func (r *StockTransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.StockTransaction, error) {
	var (
		where []string
		args  []any
	)
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		where = append(where, fmt.Sprintf("(from_location_id = $%d OR to_location_id = $%d)", len(args), len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM stock_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockTransaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// SumDeltasByPair aplica las reglas de delta por tipo directamente en SQL.
func (r *StockTransactionRepo) SumDeltasByPair(ctx context.Context) ([]repository.PairTotal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, location_id, SUM(delta)
		FROM (
			SELECT product_id, to_location_id AS location_id, quantity AS delta
			FROM stock_transactions WHERE type IN ('RECEIPT', 'TRANSFER')
			UNION ALL
			SELECT product_id, from_location_id, -quantity
			FROM stock_transactions WHERE type IN ('ISSUE', 'TRANSFER')
			UNION ALL
			SELECT product_id, from_location_id, quantity
			FROM stock_transactions WHERE type = 'ADJUSTMENT'
		) d
		GROUP BY product_id, location_id`)
	if err != nil {
		return nil, fmt.Errorf("sum deltas by pair: %w", err)
	}
	defer rows.Close()
	var totals []repository.PairTotal
	for rows.Next() {
		var p repository.PairTotal
		if err := rows.Scan(&p.ProductID, &p.LocationID, &p.Total); err != nil {
			return nil, fmt.Errorf("scan pair total: %w", err)
		}
		totals = append(totals, p)
	}
	return totals, rows.Err()
}
