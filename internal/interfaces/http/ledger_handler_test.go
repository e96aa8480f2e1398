package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// newLedgerApp arma la API completa sobre el store en memoria con un producto y dos ubicaciones.
func newLedgerApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p-1", Name: "Tornillo", SKU: "TOR-1", ReorderLevel: decimal.NewFromInt(10)})
	store.AddLocation(entity.Location{ID: "w-1", Name: "Bodega Central", Type: entity.LocationTypeWarehouse})
	store.AddLocation(entity.Location{ID: "s-1", Name: "Tienda Norte", Type: entity.LocationTypeStore})

	log := logger.Nop()
	record := ledger.NewRecordTransactionUseCase(store, store.Products(), store.Locations(), store.Audit(), nil, log, ledger.Config{})
	query := ledger.NewQueryUseCase(store.Transactions(), store.Balances(), store.Products(), store.Locations(), nil, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		RecordTransaction: record,
		Query:             query,
		Logger:            log,
		JWTSecret:         testJWTSecret,
	})
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, body, role string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e
}

func TestRecordTransaction_Receipt(t *testing.T) {
	app, _ := newLedgerApp(t)

	resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions",
		`{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":10}`, "bodeguero")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var out dto.StockTransactionResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, testUserID, out.CreatedBy)
	assert.Nil(t, out.FromLocationID)
	require.NotNil(t, out.ToLocationID)
	assert.Equal(t, "w-1", *out.ToLocationID)
	assert.True(t, out.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, strings.HasPrefix(out.ReferenceNo, "R"), out.ReferenceNo)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/products/p-1/total", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var total dto.ProductTotalResponse
	require.NoError(t, json.Unmarshal(raw, &total))
	assert.True(t, total.Total.Equal(decimal.NewFromInt(10)))
}

func TestRecordTransaction_StockInsuficiente(t *testing.T) {
	app, _ := newLedgerApp(t)
	resp, _ := call(t, app, http.MethodPost, "/api/stock/transactions",
		`{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":10}`, "bodeguero")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions",
		`{"product_id":"p-1","type":"ISSUE","from_location_id":"w-1","quantity":50}`, "bodeguero")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	e := decodeError(t, raw)
	assert.Equal(t, apphttp.CodeInsufficientStock, e.Code)
	assert.Equal(t, "w-1", e.Details["location_id"])
	assert.Equal(t, "10", e.Details["available"])
	assert.Equal(t, "50", e.Details["requested"])
}

func TestRecordTransaction_Rechazos(t *testing.T) {
	app, _ := newLedgerApp(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"receipt con origen", `{"product_id":"p-1","type":"RECEIPT","from_location_id":"w-1","to_location_id":"s-1","quantity":5}`,
			http.StatusBadRequest, apphttp.CodeInvalidShape},
		{"transfer misma ubicación", `{"product_id":"p-1","type":"TRANSFER","from_location_id":"w-1","to_location_id":"w-1","quantity":5}`,
			http.StatusBadRequest, apphttp.CodeInvalidShape},
		{"ajuste cero", `{"product_id":"p-1","type":"ADJUSTMENT","from_location_id":"w-1","quantity":0}`,
			http.StatusBadRequest, apphttp.CodeInvalidQuantity},
		{"receipt con 5 decimales", `{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":0.00001}`,
			http.StatusBadRequest, apphttp.CodeInvalidQuantity},
		{"receipt fuera de rango", `{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":100000000000000}`,
			http.StatusBadRequest, apphttp.CodeInvalidQuantity},
		{"tipo desconocido", `{"product_id":"p-1","type":"LOAN","to_location_id":"w-1","quantity":5}`,
			http.StatusBadRequest, apphttp.CodeInvalidType},
		{"producto inexistente", `{"product_id":"nope","type":"RECEIPT","to_location_id":"w-1","quantity":5}`,
			http.StatusNotFound, apphttp.CodeNotFound},
		{"ubicación inexistente", `{"product_id":"p-1","type":"RECEIPT","to_location_id":"x-9","quantity":5}`,
			http.StatusNotFound, apphttp.CodeNotFound},
		{"sin producto", `{"type":"RECEIPT","to_location_id":"w-1","quantity":5}`,
			http.StatusBadRequest, apphttp.CodeValidation},
		{"json inválido", `{"product_id":`, http.StatusBadRequest, apphttp.CodeInvalidBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions", tc.body, "bodeguero")
			assert.Equal(t, tc.status, resp.StatusCode, string(raw))
			assert.Equal(t, tc.code, decodeError(t, raw).Code)
		})
	}
}

func TestRecordTransaction_DetallesDeForma(t *testing.T) {
	app, store := newLedgerApp(t)
	resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions",
		`{"product_id":"p-1","type":"RECEIPT","from_location_id":"w-1","to_location_id":"s-1","quantity":5}`, "bodeguero")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := decodeError(t, raw)
	assert.Equal(t, "RECEIPT", e.Details["type"])
	assert.Equal(t, "w-1", e.Details["from_location_id"])
	assert.NotEmpty(t, e.Details["rule"])

	list, err := store.Transactions().List(t.Context(), repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "una transacción rechazada no se persiste")
}

func TestRecordTransaction_SinToken(t *testing.T) {
	app, _ := newLedgerApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/stock/transactions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListTransactions(t *testing.T) {
	app, _ := newLedgerApp(t)
	for _, body := range []string{
		`{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":10}`,
		`{"product_id":"p-1","type":"TRANSFER","from_location_id":"w-1","to_location_id":"s-1","quantity":4}`,
		`{"product_id":"p-1","type":"ISSUE","from_location_id":"s-1","quantity":1}`,
	} {
		resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions", body, "bodeguero")
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	}

	resp, raw := call(t, app, http.MethodGet, "/api/stock/transactions?product_id=p-1&limit=2", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var page dto.TransactionListResponse
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Limit)
	assert.Equal(t, 2, page.Page.Count)
	assert.Equal(t, "ISSUE", page.Items[0].Type, "más reciente primero")

	resp, raw = call(t, app, http.MethodGet, "/api/stock/transactions?location_id=s-1", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, ledger.DefaultListLimit, page.Page.Limit)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/transactions/"+page.Items[0].ID, "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = call(t, app, http.MethodGet, "/api/stock/transactions?limit=1000", "", "bodeguero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/transactions?type=LOAN", "", "bodeguero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidType, decodeError(t, raw).Code)

	for _, id := range []string{"abc", "7d3c1c8e-0000-4000-8000-000000000000"} {
		resp, raw = call(t, app, http.MethodGet, "/api/stock/transactions/"+id, "", "bodeguero")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
		assert.Equal(t, "transaction", decodeError(t, raw).Details["entity"])
	}
}

func TestBalancesYReorden(t *testing.T) {
	app, _ := newLedgerApp(t)
	for _, body := range []string{
		`{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":12}`,
		`{"product_id":"p-1","type":"TRANSFER","from_location_id":"w-1","to_location_id":"s-1","quantity":3}`,
		`{"product_id":"p-1","type":"ISSUE","from_location_id":"s-1","quantity":3}`,
	} {
		resp, raw := call(t, app, http.MethodPost, "/api/stock/transactions", body, "bodeguero")
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	}

	resp, raw := call(t, app, http.MethodGet, "/api/stock/products/p-1/balances", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balances []dto.StockBalanceResponse
	require.NoError(t, json.Unmarshal(raw, &balances))
	assert.Len(t, balances, 2)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/locations/s-1/balances", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &balances))
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Quantity.IsZero())

	// w-1 = 9 (< 10, LOW), s-1 = 0 (CRITICAL)
	resp, raw = call(t, app, http.MethodGet, "/api/stock/reorder/alerts", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts struct {
		Total  int                   `json:"total"`
		Alerts []dto.ReorderAlertDTO `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(raw, &alerts))
	require.Equal(t, 2, alerts.Total)
	assert.Equal(t, ledger.SeverityCritical, alerts.Alerts[0].Severity)
	assert.Equal(t, "s-1", alerts.Alerts[0].LocationID)
	assert.Equal(t, ledger.SeverityLow, alerts.Alerts[1].Severity)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/reorder/summary", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary dto.ReorderSummaryDTO
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 2, summary.TotalAlerts)
	assert.Equal(t, 1, summary.Critical)
	assert.Len(t, summary.ByLocation, 2)
	assert.Len(t, summary.ByProduct, 1)

	resp, raw = call(t, app, http.MethodGet, "/api/stock/reorder/products/p-1/suggestion", "", "bodeguero")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sug dto.ReorderSuggestionDTO
	require.NoError(t, json.Unmarshal(raw, &sug))
	assert.True(t, sug.SuggestedQuantity.Equal(decimal.NewFromInt(1)), sug.SuggestedQuantity.String())

	resp, _ = call(t, app, http.MethodGet, "/api/stock/locations/nope/balances", "", "bodeguero")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReconcile(t *testing.T) {
	app, store := newLedgerApp(t)
	resp, _ := call(t, app, http.MethodPost, "/api/stock/transactions",
		`{"product_id":"p-1","type":"RECEIPT","to_location_id":"w-1","quantity":7}`, "bodeguero")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/stock/reconcile", "", "bodeguero")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := call(t, app, http.MethodGet, "/api/stock/reconcile", "", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report dto.ReconcileReportDTO
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.CheckedPairs)

	store.CorruptBalance("p-1", "w-1", decimal.NewFromInt(3))
	resp, raw = call(t, app, http.MethodGet, "/api/stock/reconcile", "", "auditor")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.False(t, report.Consistent)
	require.Len(t, report.Drifts, 1)
	assert.True(t, report.Drifts[0].LedgerTotal.Equal(decimal.NewFromInt(7)))
	assert.True(t, report.Drifts[0].Balance.Equal(decimal.NewFromInt(3)))
}
