package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func newQuery(s *memory.Store, c ledger.StockTotalCache) *ledger.QueryUseCase {
	return ledger.NewQueryUseCase(s.Transactions(), s.Balances(), s.Products(), s.Locations(), c, logger.Nop())
}

func TestListTransactions_FiltrosYPaginacion(t *testing.T) {
	s := seededStore()
	uc := newRecorder(s, nil, nil)
	ctx := context.Background()
	for _, in := range []ledger.RecordTransactionInput{
		receipt("W", 10), receipt("S", 1), transfer("W", "S", 2), issue("S", 1),
	} {
		_, err := uc.Record(ctx, in)
		require.NoError(t, err)
	}
	q := newQuery(s, nil)

	all, err := q.ListTransactions(ctx, dto.ListTransactionsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, entity.TransactionTypeIssue, all[0].Type)
	assert.Equal(t, entity.TransactionTypeReceipt, all[3].Type)

	receipts, err := q.ListTransactions(ctx, dto.ListTransactionsQuery{Type: entity.TransactionTypeReceipt})
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	atW, err := q.ListTransactions(ctx, dto.ListTransactionsQuery{LocationID: "W"})
	require.NoError(t, err)
	assert.Len(t, atW, 2)

	page, err := q.ListTransactions(ctx, dto.ListTransactionsQuery{PageRequest: dto.PageRequest{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)

	_, err = q.ListTransactions(ctx, dto.ListTransactionsQuery{Type: "LOAN"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionType)
}

func TestGetTransaction(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	tx, err := newRecorder(s, nil, nil).Record(ctx, receipt("W", 3))
	require.NoError(t, err)
	q := newQuery(s, nil)

	got, err := q.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ReferenceNo, got.ReferenceNo)

	_, err = q.GetTransaction(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTotalForProduct_SinMovimientos(t *testing.T) {
	s := seededStore()
	out, err := newQuery(s, nil).TotalForProduct(context.Background(), "P")
	require.NoError(t, err)
	assert.True(t, out.Total.IsZero())

	_, err = newQuery(s, nil).TotalForProduct(context.Background(), "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTotalForProduct_CacheInvalidadaTrasCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	totals := cache.NewStockTotalCache(client, time.Minute)

	s := seededStore()
	ctx := context.Background()
	rec := ledger.NewRecordTransactionUseCase(s, s.Products(), s.Locations(), s.Audit(), totals, logger.Nop(), ledger.Config{})
	q := newQuery(s, totals)

	_, err := rec.Record(ctx, receipt("W", 4))
	require.NoError(t, err)
	out, err := q.TotalForProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(d(4)))
	assert.True(t, mr.Exists("stock:total:P"), "la lectura llena la caché")

	_, err = rec.Record(ctx, receipt("S", 6))
	require.NoError(t, err)
	assert.False(t, mr.Exists("stock:total:P"), "el commit invalida la caché")

	out, err = q.TotalForProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(d(10)))
}

// commitAfterRead ejecuta afterRead una vez, justo después de leer el total de la BD.
type commitAfterRead struct {
	repository.StockBalanceReader
	afterRead func()
}

func (r *commitAfterRead) TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	total, err := r.StockBalanceReader.TotalForProduct(ctx, productID)
	if r.afterRead != nil {
		fn := r.afterRead
		r.afterRead = nil
		fn()
	}
	return total, err
}

func TestTotalForProduct_CommitEntreLecturaYCacheNoDejaTotalViejo(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	totals := cache.NewStockTotalCache(client, time.Minute)

	s := seededStore()
	ctx := context.Background()
	rec := ledger.NewRecordTransactionUseCase(s, s.Products(), s.Locations(), s.Audit(), totals, logger.Nop(), ledger.Config{})
	balances := &commitAfterRead{
		StockBalanceReader: s.Balances(),
		afterRead: func() {
			_, err := rec.Record(ctx, receipt("W", 10))
			require.NoError(t, err)
		},
	}
	q := ledger.NewQueryUseCase(s.Transactions(), balances, s.Products(), s.Locations(), totals, logger.Nop())

	out, err := q.TotalForProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, out.Total.IsZero(), "la lectura vio el estado previo al commit")
	assert.False(t, mr.Exists("stock:total:P"), "el total previo al commit no se cachea")

	out, err = q.TotalForProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(d(10)), "total=%s", out.Total)

	suggestion, err := q.ReorderSuggestion(ctx, "P")
	require.NoError(t, err)
	assert.True(t, suggestion.TotalStock.Equal(d(10)))
}

func TestTotalForProduct_CacheCaidaNoEsFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	totals := cache.NewStockTotalCache(client, time.Minute)

	s := seededStore()
	ctx := context.Background()
	_, err := newRecorder(s, nil, nil).Record(ctx, receipt("W", 2))
	require.NoError(t, err)

	mr.Close()
	out, err := newQuery(s, totals).TotalForProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(d(2)))
}

func TestBalancesByProductYLocation(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	uc := newRecorder(s, nil, nil)
	_, err := uc.Record(ctx, receipt("W", 5))
	require.NoError(t, err)
	_, err = uc.Record(ctx, transfer("W", "S", 2))
	require.NoError(t, err)
	q := newQuery(s, nil)

	byProduct, err := q.BalancesByProduct(ctx, "P")
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	sum := decimal.Zero
	for _, b := range byProduct {
		sum = sum.Add(b.Quantity)
	}
	assert.True(t, sum.Equal(d(5)))

	byLocation, err := q.BalancesByLocation(ctx, "S")
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.True(t, byLocation[0].Quantity.Equal(d(2)))

	_, err = q.BalancesByProduct(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = q.BalancesByLocation(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
