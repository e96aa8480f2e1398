package entity

import (
	"encoding/json"
	"time"
)

// Acciones de auditoría.
const (
	AuditActionCreate = "CREATE"
)

// AuditLog registro de quién cambió qué.
type AuditLog struct {
	ID       string
	UserID   string
	Entity   string
	EntityID string
	Action   string
	NewValue json.RawMessage
	At       time.Time
}
