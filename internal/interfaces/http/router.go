package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Roles con acceso a la conciliación.
var reconcileRoles = []string{"admin", "auditor"}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RecordTransaction *ledger.RecordTransactionUseCase
	Query             *ledger.QueryUseCase
	Logger            *logger.Logger
	JWTSecret         string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	stock := api.Group("/stock", AuthMiddleware(deps.JWTSecret))
	h := NewLedgerHandler(deps.RecordTransaction, deps.Query, deps.Logger)

	stock.Post("/transactions", h.RecordTransaction)
	stock.Get("/transactions", h.ListTransactions)
	stock.Get("/transactions/:id", h.GetTransaction)

	stock.Get("/products/:id/total", h.ProductTotal)
	stock.Get("/products/:id/balances", h.ProductBalances)
	stock.Get("/locations/:id/balances", h.LocationBalances)

	stock.Get("/reorder/alerts", h.ReorderAlerts)
	stock.Get("/reorder/summary", h.ReorderSummary)
	stock.Get("/reorder/products/:id/suggestion", h.ReorderSuggestion)

	stock.Get("/reconcile", RequireRole(reconcileRoles...), h.Reconcile)
}
