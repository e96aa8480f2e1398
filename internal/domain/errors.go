package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrInvalidTransactionType  = errors.New("tipo de transacción inválido")
	ErrInvalidTransactionShape = errors.New("combinación de ubicaciones inválida para el tipo")
	ErrInvalidQuantity         = errors.New("cantidad inválida")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrConcurrencyConflict     = errors.New("conflicto de concurrencia, reintente")
)

// NotFoundError identifica la entidad externa que no existe.
type NotFoundError struct {
	Entity string // "product" | "location" | "transaction"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ShapeError indica qué regla de ubicaciones violó la transacción.
type ShapeError struct {
	Type           string
	Rule           string
	FromLocationID string
	ToLocationID   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Rule)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidTransactionShape }

// QuantityError indica qué regla de cantidad violó la transacción.
type QuantityError struct {
	Type     string
	Rule     string
	Quantity decimal.Decimal
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: %s (cantidad %s)", e.Type, e.Rule, e.Quantity.String())
}

func (e *QuantityError) Unwrap() error { return ErrInvalidQuantity }

// InsufficientStockError lleva el saldo disponible y lo solicitado para que el cliente corrija.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en ubicación %s: disponible %s, solicitado %s",
		e.ProductID, e.LocationID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
