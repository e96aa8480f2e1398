// Package memory implementa los puertos del ledger en memoria. Cada unidad atómica toma el
// candado exclusivo del Store (equivalente a bloquear todas las filas) y se revierte si falla.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ ledger.TxRunner                         = (*Store)(nil)
	_ repository.ProductRepository            = (*ProductRepo)(nil)
	_ repository.LocationRepository           = (*LocationRepo)(nil)
	_ repository.StockBalanceTxRepository     = (*BalanceRepo)(nil)
	_ repository.StockTransactionReader       = (*TransactionRepo)(nil)
	_ repository.StockTransactionTxRepository = (*TransactionRepo)(nil)
	_ repository.AuditLogRepository           = (*AuditRepo)(nil)
)

type pairKey struct{ product, location string }

// Store estado en memoria: catálogo, saldos, log de transacciones y auditoría.
type Store struct {
	mu        sync.RWMutex
	products  map[string]entity.Product
	locations map[string]entity.Location
	balances  map[pairKey]entity.StockBalance
	txs       []entity.StockTransaction
	audit     []entity.AuditLog
	auditErr  error
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]entity.Product),
		locations: make(map[string]entity.Location),
		balances:  make(map[pairKey]entity.StockBalance),
	}
}

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// FailAuditWith hace que Record devuelva err (nil restablece).
func (s *Store) FailAuditWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

// AuditLogs copia de los registros de auditoría.
func (s *Store) AuditLogs() []entity.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.AuditLog(nil), s.audit...)
}

// Run ejecuta fn con repositorios atados a la unidad atómica; si fn falla, restaura saldos y log.
func (s *Store) Run(ctx context.Context, fn func(
	txRepo repository.StockTransactionTxRepository,
	balanceRepo repository.StockBalanceTxRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[pairKey]entity.StockBalance, len(s.balances))
	for k, v := range s.balances {
		snapshot[k] = v
	}
	txLen := len(s.txs)

	if err := fn(&TransactionRepo{s: s, inTx: true}, &BalanceRepo{s: s, inTx: true}); err != nil {
		s.balances = snapshot
		s.txs = s.txs[:txLen]
		return err
	}
	return nil
}

// read toma el candado de lectura salvo dentro de Run, que ya tiene el exclusivo.
func (s *Store) read(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// Products devuelve el repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Locations devuelve el repositorio de ubicaciones.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// Balances devuelve el lector de saldos (fuera de transacción).
func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{s: s} }

// Transactions devuelve el lector del log (fuera de transacción).
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s: s} }

// Audit devuelve el sumidero de auditoría.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// ProductRepo catálogo en memoria.
type ProductRepo struct{ s *Store }

// GetByID devuelve nil, nil si el producto no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.s.read(false)()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// LocationRepo registro de ubicaciones en memoria.
type LocationRepo struct{ s *Store }

// GetByID devuelve nil, nil si la ubicación no existe.
func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	defer r.s.read(false)()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// BalanceRepo Balance Store en memoria.
type BalanceRepo struct {
	s    *Store
	inTx bool
}

// Get devuelve nil, nil si el par nunca tuvo movimientos.
func (r *BalanceRepo) Get(_ context.Context, productID, locationID string) (*entity.StockBalance, error) {
	defer r.s.read(r.inTx)()
	b, ok := r.s.balances[pairKey{productID, locationID}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// GetForUpdate dentro de Run el candado exclusivo ya serializa el par.
func (r *BalanceRepo) GetForUpdate(_ context.Context, productID, locationID string) (*entity.StockBalance, error) {
	defer r.s.read(r.inTx)()
	b, ok := r.s.balances[pairKey{productID, locationID}]
	if !ok {
		return &entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
	}
	return &b, nil
}

// UpsertDelta rechaza un saldo resultante negativo, igual que el CHECK de PostgreSQL.
func (r *BalanceRepo) UpsertDelta(_ context.Context, productID, locationID string, delta decimal.Decimal, at time.Time) (*entity.StockBalance, error) {
	if !r.inTx {
		return nil, domain.ErrInvalidInput
	}
	k := pairKey{productID, locationID}
	b, ok := r.s.balances[k]
	if !ok {
		b = entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}
	}
	next := b.Quantity.Add(delta)
	if !domainledger.FitsQuantity(next) {
		return nil, fmt.Errorf("%w: saldo %s fuera de NUMERIC(18,4)", domain.ErrInvalidQuantity, next.String())
	}
	if next.IsNegative() {
		return nil, &domain.InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Available:  b.Quantity,
			Requested:  delta.Neg(),
		}
	}
	b.Quantity = next
	b.LastUpdated = at
	r.s.balances[k] = b
	return &b, nil
}

// TotalForProduct suma el saldo del producto en todas las ubicaciones.
func (r *BalanceRepo) TotalForProduct(_ context.Context, productID string) (decimal.Decimal, error) {
	defer r.s.read(r.inTx)()
	total := decimal.Zero
	for k, b := range r.s.balances {
		if k.product == productID {
			total = total.Add(b.Quantity)
		}
	}
	return total, nil
}

// ListByProduct saldos del producto, ordenados por ubicación.
func (r *BalanceRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockBalance, error) {
	return r.filter(func(k pairKey) bool { return k.product == productID }), nil
}

// ListByLocation saldos de la ubicación, ordenados por producto.
func (r *BalanceRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.StockBalance, error) {
	return r.filter(func(k pairKey) bool { return k.location == locationID }), nil
}

func (r *BalanceRepo) filter(match func(pairKey) bool) []*entity.StockBalance {
	defer r.s.read(r.inTx)()
	list := make([]*entity.StockBalance, 0)
	for k, b := range r.s.balances {
		if match(k) {
			b := b
			list = append(list, &b)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProductID != list[j].ProductID {
			return list[i].ProductID < list[j].ProductID
		}
		return list[i].LocationID < list[j].LocationID
	})
	return list
}

// ListWithCatalog saldos con nombre, SKU y nivel de reorden del catálogo.
func (r *BalanceRepo) ListWithCatalog(_ context.Context) ([]repository.BalanceWithCatalog, error) {
	defer r.s.read(r.inTx)()
	rows := make([]repository.BalanceWithCatalog, 0, len(r.s.balances))
	for k, b := range r.s.balances {
		p := r.s.products[k.product]
		l := r.s.locations[k.location]
		rows = append(rows, repository.BalanceWithCatalog{
			ProductID:    k.product,
			ProductName:  p.Name,
			SKU:          p.SKU,
			ReorderLevel: p.ReorderLevel,
			LocationID:   k.location,
			LocationName: l.Name,
			Quantity:     b.Quantity,
		})
	}
	return rows, nil
}

// TransactionRepo Transaction Log en memoria (append-only).
type TransactionRepo struct {
	s    *Store
	inTx bool
}

// Create agrega la transacción al log; solo dentro de Run.
func (r *TransactionRepo) Create(_ context.Context, tx *entity.StockTransaction) error {
	if !r.inTx {
		return domain.ErrInvalidInput
	}
	r.s.txs = append(r.s.txs, *tx)
	return nil
}

// GetByID devuelve nil, nil si la transacción no existe.
func (r *TransactionRepo) GetByID(_ context.Context, id string) (*entity.StockTransaction, error) {
	defer r.s.read(r.inTx)()
	for i := range r.s.txs {
		if r.s.txs[i].ID == id {
			tx := r.s.txs[i]
			return &tx, nil
		}
	}
	return nil, nil
}

// List recorre el log en orden inverso de commit (más reciente primero).
func (r *TransactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.StockTransaction, error) {
	defer r.s.read(r.inTx)()
	list := make([]*entity.StockTransaction, 0)
	skipped := 0
	for i := len(r.s.txs) - 1; i >= 0; i-- {
		tx := r.s.txs[i]
		if f.ProductID != "" && tx.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && tx.FromLocationID != f.LocationID && tx.ToLocationID != f.LocationID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if f.Limit > 0 && len(list) >= f.Limit {
			break
		}
		list = append(list, &tx)
	}
	return list, nil
}

// SumDeltasByPair recalcula Σ deltas por (producto, ubicación) desde el log.
func (r *TransactionRepo) SumDeltasByPair(_ context.Context) ([]repository.PairTotal, error) {
	defer r.s.read(r.inTx)()
	totals := make(map[pairKey]decimal.Decimal)
	for i := range r.s.txs {
		tx := r.s.txs[i]
		for _, d := range domainledger.Deltas(&tx) {
			k := pairKey{tx.ProductID, d.LocationID}
			totals[k] = totals[k].Add(d.Amount)
		}
	}
	out := make([]repository.PairTotal, 0, len(totals))
	for k, v := range totals {
		out = append(out, repository.PairTotal{ProductID: k.product, LocationID: k.location, Total: v})
	}
	return out, nil
}

// AuditRepo sumidero de auditoría en memoria.
type AuditRepo struct{ s *Store }

// Record guarda el registro o devuelve el error fijado con FailAuditWith.
func (r *AuditRepo) Record(ctx context.Context, log entity.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	r.s.audit = append(r.s.audit, log)
	return nil
}

// CorruptBalance fuerza un saldo fuera del ledger; solo para probar la conciliación.
func (s *Store) CorruptBalance(productID, locationID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[pairKey{productID, locationID}] = entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: qty, LastUpdated: time.Now()}
}
