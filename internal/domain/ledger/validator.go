// Package ledger contiene las reglas puras del ledger de stock: validación estructural
// por tipo, deltas de saldo implicados y generación de números de referencia.
package ledger

import (
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Intent es la transacción propuesta antes de validarse.
type Intent struct {
	Type           string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
}

// Reglas de forma (mensajes estables, el cliente los usa para corregir la petición).
const (
	RuleFromMustBeAbsent = "fromLocation debe estar ausente"
	RuleFromRequired     = "fromLocation es obligatorio"
	RuleToMustBeAbsent   = "toLocation debe estar ausente"
	RuleToRequired       = "toLocation es obligatorio"
	RuleFromEqualsTo     = "fromLocation y toLocation deben ser distintos"
	RuleQuantityPositive = "la cantidad debe ser mayor que cero"
	RuleQuantityNonZero  = "la cantidad no puede ser cero"
	RuleQuantityScale    = "la cantidad admite como máximo 4 decimales"
	RuleQuantityRange    = "la cantidad admite como máximo 14 dígitos enteros"
)

// Límites de NUMERIC(18,4), la columna donde se guardan cantidades y saldos.
const QuantityScale = 4

// MaxQuantity es la primera magnitud que ya no cabe en NUMERIC(18,4).
var MaxQuantity = decimal.New(1, 18-QuantityScale)

// FitsQuantity indica si q se guarda sin redondeo ni desborde.
func FitsQuantity(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale)) && q.Abs().LessThan(MaxQuantity)
}

// Validate aplica las reglas por tipo: forma de ubicaciones primero, luego cantidad.
// No hace I/O; las verificaciones de existencia y de saldo las hace el servicio.
func Validate(in Intent) error {
	switch in.Type {
	case entity.TransactionTypeReceipt:
		if in.FromLocationID != "" {
			return shapeErr(in, RuleFromMustBeAbsent)
		}
		if in.ToLocationID == "" {
			return shapeErr(in, RuleToRequired)
		}
		if err := requirePositive(in); err != nil {
			return err
		}
	case entity.TransactionTypeIssue:
		if in.FromLocationID == "" {
			return shapeErr(in, RuleFromRequired)
		}
		if in.ToLocationID != "" {
			return shapeErr(in, RuleToMustBeAbsent)
		}
		if err := requirePositive(in); err != nil {
			return err
		}
	case entity.TransactionTypeTransfer:
		if in.FromLocationID == "" {
			return shapeErr(in, RuleFromRequired)
		}
		if in.ToLocationID == "" {
			return shapeErr(in, RuleToRequired)
		}
		if in.FromLocationID == in.ToLocationID {
			return shapeErr(in, RuleFromEqualsTo)
		}
		if err := requirePositive(in); err != nil {
			return err
		}
	case entity.TransactionTypeAdjustment:
		if in.FromLocationID == "" {
			return shapeErr(in, RuleFromRequired)
		}
		if in.ToLocationID != "" {
			return shapeErr(in, RuleToMustBeAbsent)
		}
		if in.Quantity.IsZero() {
			return &domain.QuantityError{Type: in.Type, Rule: RuleQuantityNonZero, Quantity: in.Quantity}
		}
		if err := requireStorable(in); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidTransactionType, in.Type)
	}
	if in.ProductID == "" {
		return fmt.Errorf("%w: productId es obligatorio", domain.ErrInvalidInput)
	}
	return nil
}

func requirePositive(in Intent) error {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return &domain.QuantityError{Type: in.Type, Rule: RuleQuantityPositive, Quantity: in.Quantity}
	}
	return requireStorable(in)
}

func requireStorable(in Intent) error {
	q := in.Quantity
	if !q.Equal(q.Truncate(QuantityScale)) {
		return &domain.QuantityError{Type: in.Type, Rule: RuleQuantityScale, Quantity: q}
	}
	if q.Abs().GreaterThanOrEqual(MaxQuantity) {
		return &domain.QuantityError{Type: in.Type, Rule: RuleQuantityRange, Quantity: q}
	}
	return nil
}

func shapeErr(in Intent, rule string) error {
	return &domain.ShapeError{
		Type:           in.Type,
		Rule:           rule,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
	}
}

// LocationIDs devuelve las ubicaciones referenciadas (sin vacíos) para verificar existencia.
func (in Intent) LocationIDs() []string {
	ids := make([]string, 0, 2)
	if in.FromLocationID != "" {
		ids = append(ids, in.FromLocationID)
	}
	if in.ToLocationID != "" {
		ids = append(ids, in.ToLocationID)
	}
	return ids
}
