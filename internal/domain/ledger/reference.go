package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReferenceNo genera la referencia legible: inicial del tipo + marca de tiempo compacta
// + sufijo aleatorio, p. ej. "R261017153045-9F2A". La unicidad es best-effort.
func NewReferenceNo(txType string, at time.Time) string {
	initial := "X"
	if txType != "" {
		initial = txType[:1]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return initial + at.UTC().Format("060102150405") + "-" + suffix
}
