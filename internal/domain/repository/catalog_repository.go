package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo externo de productos.
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// LocationRepository puerto de lectura del registro externo de ubicaciones.
// GetByID devuelve (nil, nil) si no existe.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}
