package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
)

// ProductRepo lectura del catálogo de productos (tabla products, mantenida por otro servicio).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `
		SELECT id, name, sku, reorder_level FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.SKU, &p.ReorderLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// LocationRepo lectura del registro de ubicaciones.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación; (nil, nil) si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, `
		SELECT id, name, type FROM locations WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
