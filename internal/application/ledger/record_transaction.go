package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// Config parámetros del servicio de ledger.
type Config struct {
	MaxRetries   int           // reintentos ante conflicto de concurrencia (además del primer intento)
	RetryBackoff time.Duration // espera lineal: RetryBackoff * intento
	AuditTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 20 * time.Millisecond
	}
	if c.AuditTimeout <= 0 {
		c.AuditTimeout = 3 * time.Second
	}
	return c
}

// RecordTransactionUseCase registra movimientos de stock (RECEIPT, ISSUE, TRANSFER, ADJUSTMENT):
// valida, inserta la transacción y aplica los deltas de saldo en una sola unidad atómica
// con bloqueo de fila (SELECT FOR UPDATE), y luego emite auditoría best-effort.
type RecordTransactionUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	audit        repository.AuditLogRepository
	cache        StockTotalCache
	log          *logger.Logger
	cfg          Config
	now          func() time.Time
}

// NewRecordTransactionUseCase construye el caso de uso. audit y cache pueden ser nil.
func NewRecordTransactionUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	audit repository.AuditLogRepository,
	cache StockTotalCache,
	log *logger.Logger,
	cfg Config,
) *RecordTransactionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RecordTransactionUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		audit:        audit,
		cache:        cache,
		log:          log,
		cfg:          cfg.withDefaults(),
		now:          time.Now,
	}
}

// RecordTransactionInput intención de movimiento. UserID es el usuario que actúa.
type RecordTransactionInput struct {
	UserID         string
	ProductID      string
	Type           string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	ReferenceNo    string
	Remarks        string
}

// RecordFromRequest adapta el request HTTP al caso de uso Record.
func (uc *RecordTransactionUseCase) RecordFromRequest(ctx context.Context, userID string, in dto.RecordTransactionRequest) (*dto.StockTransactionResponse, error) {
	tx, err := uc.Record(ctx, RecordTransactionInput{
		UserID:         userID,
		ProductID:      strings.TrimSpace(in.ProductID),
		Type:           strings.TrimSpace(in.Type),
		FromLocationID: strings.TrimSpace(in.FromLocationID),
		ToLocationID:   strings.TrimSpace(in.ToLocationID),
		Quantity:       in.Quantity,
		ReferenceNo:    in.ReferenceNo,
		Remarks:        in.Remarks,
	})
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

// Record valida, confirma atómicamente (transacción + saldos) y devuelve la transacción confirmada.
// Cualquier fallo antes del commit no deja cambios persistidos; un fallo de auditoría solo se registra en log.
func (uc *RecordTransactionUseCase) Record(ctx context.Context, in RecordTransactionInput) (*entity.StockTransaction, error) {
	intent := domainledger.Intent{
		Type:           in.Type,
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
	}
	if err := domainledger.Validate(intent); err != nil {
		return nil, err
	}
	if err := uc.resolve(ctx, intent); err != nil {
		return nil, err
	}

	now := uc.now()
	ref := strings.TrimSpace(in.ReferenceNo)
	if ref == "" {
		ref = domainledger.NewReferenceNo(in.Type, now)
	}
	tx := &entity.StockTransaction{
		ID:             uuid.NewString(),
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		ReferenceNo:    ref,
		Remarks:        strings.TrimSpace(in.Remarks),
		CreatedBy:      in.UserID,
		CreatedAt:      now,
	}

	err := uc.withRetry(ctx, tx.ID, func() error {
		tx.CreatedAt = uc.now()
		return uc.txRunner.Run(ctx, func(
			txRepo repository.StockTransactionTxRepository,
			balanceRepo repository.StockBalanceTxRepository,
		) error {
			return applyTransaction(ctx, txRepo, balanceRepo, tx)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateTotals(ctx, tx.ProductID)
	uc.emitAudit(ctx, tx)
	return tx, nil
}

// applyTransaction corre dentro de la unidad atómica: bloquea las filas en orden,
// verifica saldo suficiente, inserta la transacción y aplica los deltas.
func applyTransaction(
	ctx context.Context,
	txRepo repository.StockTransactionTxRepository,
	balanceRepo repository.StockBalanceTxRepository,
	tx *entity.StockTransaction,
) error {
	deltas := domainledger.Deltas(tx)
	byLocation := make(map[string]domainledger.Delta, len(deltas))
	for _, d := range deltas {
		byLocation[d.LocationID] = d
	}
	for _, locationID := range domainledger.LockOrder(deltas) {
		current, err := balanceRepo.GetForUpdate(ctx, tx.ProductID, locationID)
		if err != nil {
			return err
		}
		if err := domainledger.CheckAvailable(tx.ProductID, byLocation[locationID], current.Quantity); err != nil {
			return err
		}
	}
	if err := txRepo.Create(ctx, tx); err != nil {
		return err
	}
	for _, d := range deltas {
		if _, err := balanceRepo.UpsertDelta(ctx, tx.ProductID, d.LocationID, d.Amount, tx.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (uc *RecordTransactionUseCase) resolve(ctx context.Context, intent domainledger.Intent) error {
	product, err := uc.productRepo.GetByID(ctx, intent.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return &domain.NotFoundError{Entity: "product", ID: intent.ProductID}
	}
	for _, id := range intent.LocationIDs() {
		loc, err := uc.locationRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get location: %w", err)
		}
		if loc == nil {
			return &domain.NotFoundError{Entity: "location", ID: id}
		}
	}
	return nil
}

// withRetry reintenta la unidad atómica completa solo ante ErrConcurrencyConflict.
func (uc *RecordTransactionUseCase) withRetry(ctx context.Context, txID string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if attempt > uc.cfg.MaxRetries {
			uc.log.Error().Err(err).Str("transaction_id", txID).Int("attempts", attempt).
				Msg("conflicto de concurrencia persistente")
			return err
		}
		uc.log.Debug().Err(err).Str("transaction_id", txID).Int("attempt", attempt).
			Msg("conflicto de concurrencia, reintentando")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uc.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
}

func (uc *RecordTransactionUseCase) invalidateTotals(ctx context.Context, productID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(context.WithoutCancel(ctx), productID); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("invalidar caché de totales")
	}
}

// emitAudit registra la auditoría después del commit. Nunca falla la operación.
func (uc *RecordTransactionUseCase) emitAudit(ctx context.Context, tx *entity.StockTransaction) {
	if uc.audit == nil {
		return
	}
	payload, err := json.Marshal(ToTransactionResponse(tx))
	if err != nil {
		uc.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("serializar auditoría")
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.AuditTimeout)
	defer cancel()
	entry := entity.AuditLog{
		ID:       uuid.NewString(),
		UserID:   tx.CreatedBy,
		Entity:   "StockTransaction",
		EntityID: tx.ID,
		Action:   entity.AuditActionCreate,
		NewValue: payload,
		At:       tx.CreatedAt,
	}
	if err := uc.audit.Record(auditCtx, entry); err != nil {
		uc.log.Warn().Err(err).
			Str("transaction_id", tx.ID).
			Str("user_id", tx.CreatedBy).
			Msg("auditoría no registrada")
	}
}
