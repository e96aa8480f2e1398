package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// Límites de paginación del listado de transacciones.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// QueryUseCase fachada de lectura: transacciones, saldos, alertas de reorden y conciliación.
// Ninguna operación muta estado.
type QueryUseCase struct {
	transactions repository.StockTransactionReader
	balances     repository.StockBalanceReader
	products     repository.ProductRepository
	locations    repository.LocationRepository
	cache        StockTotalCache
	log          *logger.Logger
}

// NewQueryUseCase construye la fachada. cache puede ser nil.
func NewQueryUseCase(
	transactions repository.StockTransactionReader,
	balances repository.StockBalanceReader,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	cache StockTotalCache,
	log *logger.Logger,
) *QueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{
		transactions: transactions,
		balances:     balances,
		products:     products,
		locations:    locations,
		cache:        cache,
		log:          log,
	}
}

// ListTransactions lista transacciones filtradas, de más reciente a más antigua.
func (uc *QueryUseCase) ListTransactions(ctx context.Context, q dto.ListTransactionsQuery) ([]dto.StockTransactionResponse, error) {
	switch q.Type {
	case "", entity.TransactionTypeReceipt, entity.TransactionTypeIssue,
		entity.TransactionTypeTransfer, entity.TransactionTypeAdjustment:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTransactionType, q.Type)
	}
	q.DefaultPage()
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	list, err := uc.transactions.List(ctx, repository.TransactionFilter{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		Type:       q.Type,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockTransactionResponse, 0, len(list))
	for _, tx := range list {
		out = append(out, ToTransactionResponse(tx))
	}
	return out, nil
}

// GetTransaction obtiene una transacción por ID. Un ID que no es UUID no existe.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id string) (*dto.StockTransactionResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Entity: "transaction", ID: id}
	}
	tx, err := uc.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &domain.NotFoundError{Entity: "transaction", ID: id}
	}
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// TotalForProduct suma el stock del producto en todas las ubicaciones.
func (uc *QueryUseCase) TotalForProduct(ctx context.Context, productID string) (*dto.ProductTotalResponse, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "product", ID: productID}
	}
	total, err := uc.total(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &dto.ProductTotalResponse{ProductID: productID, Total: total}, nil
}

// total lee a través de la caché si está configurada; un fallo de caché no es fatal.
// La versión se toma antes de leer la BD: si un commit la avanza en medio, el total no se cachea.
func (uc *QueryUseCase) total(ctx context.Context, productID string) (decimal.Decimal, error) {
	if uc.cache == nil {
		return uc.balances.TotalForProduct(ctx, productID)
	}
	if v, ok, err := uc.cache.GetTotal(ctx, productID); err == nil && ok {
		return v, nil
	} else if err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("leer caché de totales")
	}
	version, verErr := uc.cache.Version(ctx, productID)
	total, err := uc.balances.TotalForProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if verErr != nil {
		uc.log.Warn().Err(verErr).Str("product_id", productID).Msg("leer versión de totales")
		return total, nil
	}
	if err := uc.cache.SetTotal(ctx, productID, version, total); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("escribir caché de totales")
	}
	return total, nil
}

// BalancesByProduct saldos del producto por ubicación.
func (uc *QueryUseCase) BalancesByProduct(ctx context.Context, productID string) ([]dto.StockBalanceResponse, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "product", ID: productID}
	}
	list, err := uc.balances.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toBalances(list), nil
}

// BalancesByLocation saldos de todos los productos en una ubicación.
func (uc *QueryUseCase) BalancesByLocation(ctx context.Context, locationID string) ([]dto.StockBalanceResponse, error) {
	loc, err := uc.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if loc == nil {
		return nil, &domain.NotFoundError{Entity: "location", ID: locationID}
	}
	list, err := uc.balances.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return toBalances(list), nil
}

func toBalances(list []*entity.StockBalance) []dto.StockBalanceResponse {
	out := make([]dto.StockBalanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, ToBalanceResponse(b))
	}
	return out
}
