package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Códigos de error de la API.
const (
	CodeInvalidBody       = "INVALID_BODY"
	CodeValidation        = "VALIDATION"
	CodeInvalidType       = "INVALID_TRANSACTION_TYPE"
	CodeInvalidShape      = "INVALID_TRANSACTION_SHAPE"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeConflict          = "CONCURRENCY_CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

// writeError traduce errores de dominio a status HTTP y ErrorResponse.
// Los detalles (regla, ids, cantidades) permiten al cliente corregir la petición.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		notFound *domain.NotFoundError
		shape    *domain.ShapeError
		quantity *domain.QuantityError
		stock    *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: CodeNotFound, Message: err.Error(),
			Details: map[string]any{"entity": notFound.Entity, "id": notFound.ID},
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: CodeNotFound, Message: err.Error()})
	case errors.As(err, &shape):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: CodeInvalidShape, Message: err.Error(),
			Details: map[string]any{
				"type":             shape.Type,
				"rule":             shape.Rule,
				"from_location_id": shape.FromLocationID,
				"to_location_id":   shape.ToLocationID,
			},
		})
	case errors.Is(err, domain.ErrInvalidTransactionShape):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidShape, Message: err.Error()})
	case errors.As(err, &quantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: CodeInvalidQuantity, Message: err.Error(),
			Details: map[string]any{"type": quantity.Type, "rule": quantity.Rule, "quantity": quantity.Quantity.String()},
		})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidQuantity, Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidType, Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: err.Error()})
	case errors.As(err, &stock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: CodeInsufficientStock, Message: err.Error(),
			Details: map[string]any{
				"product_id":  stock.ProductID,
				"location_id": stock.LocationID,
				"available":   stock.Available.String(),
				"requested":   stock.Requested.String(),
			},
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: CodeInsufficientStock, Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: CodeConflict, Message: "conflicto de concurrencia, reintente"})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: CodeInternal, Message: "error interno"})
}
