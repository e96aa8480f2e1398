package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LedgerHandler maneja las peticiones HTTP del ledger de stock (protegido).
type LedgerHandler struct {
	record *ledger.RecordTransactionUseCase
	query  *ledger.QueryUseCase
	log    *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(record *ledger.RecordTransactionUseCase, query *ledger.QueryUseCase, log *logger.Logger) *LedgerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerHandler{record: record, query: query, log: log}
}

// RecordTransaction godoc
// @Summary      Registrar transacción de stock
// @Description  RECEIPT (to), ISSUE (from), TRANSFER (from y to distintos), ADJUSTMENT (from, cantidad con signo distinta de cero).
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordTransactionRequest  true  "product_id, type, from_location_id / to_location_id, quantity"
// @Success      201   {object}  dto.StockTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/transactions [post]
func (h *LedgerHandler) RecordTransaction(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeUnauthorized, Message: "token inválido"})
	}
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidBody, Message: "cuerpo inválido"})
	}
	if done, err := validateStruct(c, in); done {
		return err
	}
	out, err := h.record.RecordFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListTransactions godoc
// @Summary      Listar transacciones
// @Description  De más reciente a más antigua. location_id coincide con origen o destino.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación (origen o destino)"
// @Param        type         query  string  false  "RECEIPT | ISSUE | TRANSFER | ADJUSTMENT"
// @Param        limit        query  int     false  "Máximo de filas (por defecto 50, máximo 500)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/transactions [get]
func (h *LedgerHandler) ListTransactions(c *fiber.Ctx) error {
	q := dto.ListTransactionsQuery{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Type:       c.Query("type"),
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		},
	}
	if done, err := validateStruct(c, q); done {
		return err
	}
	list, err := h.query.ListTransactions(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	q.DefaultPage()
	return c.JSON(dto.TransactionListResponse{
		Items: list,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Count: len(list)},
	})
}

// GetTransaction godoc
// @Summary      Obtener transacción por ID
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.StockTransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c *fiber.Ctx) error {
	out, err := h.query.GetTransaction(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ProductTotal godoc
// @Summary      Stock total de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductTotalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/total [get]
func (h *LedgerHandler) ProductTotal(c *fiber.Ctx) error {
	out, err := h.query.TotalForProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ProductBalances godoc
// @Summary      Saldos de un producto por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.StockBalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/balances [get]
func (h *LedgerHandler) ProductBalances(c *fiber.Ctx) error {
	out, err := h.query.BalancesByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// LocationBalances godoc
// @Summary      Saldos de una ubicación por producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {array}   dto.StockBalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/locations/{id}/balances [get]
func (h *LedgerHandler) LocationBalances(c *fiber.Ctx) error {
	out, err := h.query.BalancesByLocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReorderAlerts godoc
// @Summary      Alertas de reorden
// @Description  Pares con cantidad por debajo del nivel de reorden; CRITICAL si la cantidad es cero o menor.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReorderAlertDTO
// @Router       /api/stock/reorder/alerts [get]
func (h *LedgerHandler) ReorderAlerts(c *fiber.Ctx) error {
	list, err := h.query.ReorderAlerts(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":  len(list),
		"alerts": list,
	})
}

// ReorderSummary godoc
// @Summary      Resumen de alertas de reorden por ubicación y por producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReorderSummaryDTO
// @Router       /api/stock/reorder/summary [get]
func (h *LedgerHandler) ReorderSummary(c *fiber.Ctx) error {
	out, err := h.query.ReorderSummary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReorderSuggestion godoc
// @Summary      Cantidad sugerida de pedido para un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReorderSuggestionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/reorder/products/{id}/suggestion [get]
func (h *LedgerHandler) ReorderSuggestion(c *fiber.Ctx) error {
	out, err := h.query.ReorderSuggestion(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar saldos contra el log de transacciones
// @Description  Solo lectura: reporta los pares cuyo saldo difiere de la suma de deltas del log.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconcileReportDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/reconcile [get]
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.query.Reconcile(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
