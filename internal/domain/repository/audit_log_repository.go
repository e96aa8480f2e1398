package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AuditLogRepository sumidero de auditoría.
type AuditLogRepository interface {
	Record(ctx context.Context, log entity.AuditLog) error
}
