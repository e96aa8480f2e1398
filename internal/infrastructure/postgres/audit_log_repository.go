package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo sumidero de auditoría sobre audit_logs.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Record inserta una entrada de auditoría.
func (r *AuditLogRepo) Record(ctx context.Context, log entity.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, entity, entity_id, action, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.UserID, log.Entity, log.EntityID, log.Action, []byte(log.NewValue), log.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
