package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockBalanceTxRepository = (*StockBalanceRepo)(nil)

// StockBalanceRepo Balance Store sobre la tabla stock_balances (usable con pool o tx).
// UpsertDelta y GetForUpdate solo tienen sentido con una tx; TxRunner es quien los expone.
type StockBalanceRepo struct {
	q Querier
}

// NewStockBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBalanceRepository(q Querier) *StockBalanceRepo {
	return &StockBalanceRepo{q: q}
}

const balanceColumns = `product_id, location_id, quantity, last_updated`

func scanBalance(row pgx.Row) (*entity.StockBalance, error) {
	var b entity.StockBalance
	if err := row.Scan(&b.ProductID, &b.LocationID, &b.Quantity, &b.LastUpdated); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get obtiene el saldo de un par; (nil, nil) si nunca fue tocado.
func (r *StockBalanceRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockBalance, error) {
	b, err := scanBalance(r.q.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM stock_balances WHERE product_id = $1 AND location_id = $2`, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return b, nil
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE). Saldo cero si no existe.
func (r *StockBalanceRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockBalance, error) {
	b, err := scanBalance(r.q.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM stock_balances WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock balance for update: %w", err)
	}
	return b, nil
}

// UpsertDelta crea la fila con quantity = delta o suma delta a la existente.
// El CHECK (quantity >= 0) rechaza cualquier saldo negativo.
func (r *StockBalanceRepo) UpsertDelta(ctx context.Context, productID, locationID string, delta decimal.Decimal, at time.Time) (*entity.StockBalance, error) {
	b, err := scanBalance(r.q.QueryRow(ctx, `
		INSERT INTO stock_balances (product_id, location_id, quantity, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = stock_balances.quantity + EXCLUDED.quantity,
		              last_updated = EXCLUDED.last_updated
		RETURNING `+balanceColumns, productID, locationID, delta, at))
	if err != nil {
		if isNegativeBalance(err) {
			return nil, fmt.Errorf("%w: producto %s en ubicación %s", domain.ErrInsufficientStock, productID, locationID)
		}
		return nil, fmt.Errorf("upsert stock balance: %w", err)
	}
	return b, nil
}

// TotalForProduct suma el stock del producto en todas las ubicaciones.
func (r *StockBalanceRepo) TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_balances WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total for product: %w", err)
	}
	return total, nil
}

// ListByProduct saldos del producto por ubicación.
func (r *StockBalanceRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockBalance, error) {
	return r.list(ctx, `
		SELECT `+balanceColumns+` FROM stock_balances
		WHERE product_id = $1 ORDER BY location_id`, productID)
}

// ListByLocation saldos de la ubicación por producto.
func (r *StockBalanceRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockBalance, error) {
	return r.list(ctx, `
		SELECT `+balanceColumns+` FROM stock_balances
		WHERE location_id = $1 ORDER BY product_id`, locationID)
}

func (r *StockBalanceRepo) list(ctx context.Context, query string, arg string) ([]*entity.StockBalance, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock balances: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockBalance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ListWithCatalog todas las filas de saldo con nombre, SKU y nivel de reorden.
func (r *StockBalanceRepo) ListWithCatalog(ctx context.Context) ([]repository.BalanceWithCatalog, error) {
	rows, err := r.q.Query(ctx, `
		SELECT
			b.product_id,
			COALESCE(p.name, ''),
			COALESCE(p.sku, ''),
			COALESCE(p.reorder_level, 0),
			b.location_id,
			COALESCE(l.name, ''),
			b.quantity
		FROM stock_balances b
		LEFT JOIN products  p ON p.id = b.product_id
		LEFT JOIN locations l ON l.id = b.location_id`)
	if err != nil {
		return nil, fmt.Errorf("list balances with catalog: %w", err)
	}
	defer rows.Close()
	var items []repository.BalanceWithCatalog
	for rows.Next() {
		var it repository.BalanceWithCatalog
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.SKU, &it.ReorderLevel,
			&it.LocationID, &it.LocationName, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan balance with catalog: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
