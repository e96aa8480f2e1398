package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordTransactionRequest body para POST /api/stock/transactions.
// Las reglas por tipo las aplica el validador del ledger; aquí solo la estructura.
type RecordTransactionRequest struct {
	ProductID      string          `json:"product_id" validate:"required,max=64"`
	Type           string          `json:"type" validate:"required"`
	FromLocationID string          `json:"from_location_id,omitempty" validate:"max=64"`
	ToLocationID   string          `json:"to_location_id,omitempty" validate:"max=64"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReferenceNo    string          `json:"reference_no,omitempty" validate:"max=64"`
	Remarks        string          `json:"remarks,omitempty" validate:"max=500"`
}

// ListTransactionsQuery filtros de GET /api/stock/transactions.
type ListTransactionsQuery struct {
	ProductID  string `query:"product_id" validate:"max=64"`
	LocationID string `query:"location_id" validate:"max=64"`
	Type       string `query:"type"`
	PageRequest
}

// StockTransactionResponse transacción confirmada.
type StockTransactionResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	FromLocationID *string         `json:"from_location_id"`
	ToLocationID   *string         `json:"to_location_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReferenceNo    string          `json:"reference_no"`
	Remarks        string          `json:"remarks,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StockBalanceResponse saldo de un producto en una ubicación.
type StockBalanceResponse struct {
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	LastUpdated time.Time       `json:"last_updated"`
}

// ProductTotalResponse stock total de un producto en todas las ubicaciones.
type ProductTotalResponse struct {
	ProductID string          `json:"product_id"`
	Total     decimal.Decimal `json:"total"`
}

// ReorderAlertDTO alerta de reorden para un par producto/ubicación.
type ReorderAlertDTO struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	LocationID   string          `json:"location_id"`
	LocationName string          `json:"location_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Severity     string          `json:"severity"` // CRITICAL | LOW
}

// ReorderGroupDTO agregación de alertas por ubicación o por producto.
type ReorderGroupDTO struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Critical int               `json:"critical"`
	Low      int               `json:"low"`
	Alerts   []ReorderAlertDTO `json:"alerts"`
}

// ReorderSummaryDTO resumen de alertas agrupado.
type ReorderSummaryDTO struct {
	TotalAlerts int               `json:"total_alerts"`
	Critical    int               `json:"critical"`
	Low         int               `json:"low"`
	ByLocation  []ReorderGroupDTO `json:"by_location"`
	ByProduct   []ReorderGroupDTO `json:"by_product"`
}

// ReorderSuggestionDTO cantidad sugerida de pedido: max(0, reorderLevel - totalStock).
type ReorderSuggestionDTO struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	SKU               string          `json:"sku"`
	ReorderLevel      decimal.Decimal `json:"reorder_level"`
	TotalStock        decimal.Decimal `json:"total_stock"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
}

// BalanceDriftDTO par cuyo saldo materializado no coincide con la suma del log.
type BalanceDriftDTO struct {
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	LedgerTotal decimal.Decimal `json:"ledger_total"`
	Balance     decimal.Decimal `json:"balance"`
}

// ReconcileReportDTO resultado de la conciliación log vs saldos.
type ReconcileReportDTO struct {
	CheckedPairs int               `json:"checked_pairs"`
	Consistent   bool              `json:"consistent"`
	Drifts       []BalanceDriftDTO `json:"drifts"`
}

// TransactionListResponse página de transacciones.
type TransactionListResponse struct {
	Items []StockTransactionResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}
