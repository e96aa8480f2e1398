package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE relevantes para el ledger.
const (
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// constraintBalanceNonNegative es el CHECK (quantity >= 0) de stock_balances.
const constraintBalanceNonNegative = "stock_balances_quantity_nonnegative"

// isCheckViolation: algún CHECK rechazó la fila (23514).
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// isNegativeBalance: el saldo resultante quedaría negativo.
func isNegativeBalance(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == codeCheckViolation &&
		pgErr.ConstraintName == constraintBalanceNonNegative
}

// isNumericOutOfRange: la cantidad o el saldo no caben en NUMERIC(18,4).
func isNumericOutOfRange(err error) bool {
	return pgCode(err) == codeNumericOutOfRange
}

// isSerializationFailure: fallo de serialización o deadlock, reintentables.
func isSerializationFailure(err error) bool {
	code := pgCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// classify traduce errores del driver a errores de dominio; el resto pasa intacto.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isSerializationFailure(err):
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidQuantity):
		return err
	case isNegativeBalance(err):
		return fmt.Errorf("%w: %v", domain.ErrInsufficientStock, err)
	case isNumericOutOfRange(err):
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuantity, err)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return err
}
