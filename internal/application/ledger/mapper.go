package ledger

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ToTransactionResponse convierte la entidad al DTO de respuesta (también es el payload de auditoría).
func ToTransactionResponse(tx *entity.StockTransaction) dto.StockTransactionResponse {
	return dto.StockTransactionResponse{
		ID:             tx.ID,
		ProductID:      tx.ProductID,
		FromLocationID: optional(tx.FromLocationID),
		ToLocationID:   optional(tx.ToLocationID),
		Type:           tx.Type,
		Quantity:       tx.Quantity,
		ReferenceNo:    tx.ReferenceNo,
		Remarks:        tx.Remarks,
		CreatedBy:      tx.CreatedBy,
		CreatedAt:      tx.CreatedAt,
	}
}

// ToBalanceResponse convierte un saldo al DTO.
func ToBalanceResponse(b *entity.StockBalance) dto.StockBalanceResponse {
	return dto.StockBalanceResponse{
		ProductID:   b.ProductID,
		LocationID:  b.LocationID,
		Quantity:    b.Quantity,
		LastUpdated: b.LastUpdated,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
