package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Severidades de alerta de reorden.
const (
	SeverityCritical = "CRITICAL"
	SeverityLow      = "LOW"
)

// ClassifyAlert: sin alerta si quantity >= reorderLevel; CRITICAL si quantity <= 0; LOW en otro caso.
func ClassifyAlert(quantity, reorderLevel decimal.Decimal) (string, bool) {
	if !quantity.LessThan(reorderLevel) {
		return "", false
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return SeverityCritical, true
	}
	return SeverityLow, true
}

// BuildAlerts deriva las alertas de las filas de saldo. CRITICAL primero, luego por producto y ubicación.
func BuildAlerts(rows []repository.BalanceWithCatalog) []dto.ReorderAlertDTO {
	alerts := make([]dto.ReorderAlertDTO, 0)
	for _, r := range rows {
		severity, ok := ClassifyAlert(r.Quantity, r.ReorderLevel)
		if !ok {
			continue
		}
		alerts = append(alerts, dto.ReorderAlertDTO{
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			SKU:          r.SKU,
			LocationID:   r.LocationID,
			LocationName: r.LocationName,
			Quantity:     r.Quantity,
			ReorderLevel: r.ReorderLevel,
			Severity:     severity,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityCritical
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.LocationName < b.LocationName
	})
	return alerts
}

// GroupByLocation agrupa alertas por ubicación, grupos por nombre ascendente (empate por ID).
func GroupByLocation(alerts []dto.ReorderAlertDTO) []dto.ReorderGroupDTO {
	return groupAlerts(alerts, func(a dto.ReorderAlertDTO) (string, string) { return a.LocationID, a.LocationName })
}

// GroupByProduct agrupa alertas por producto, grupos por nombre ascendente (empate por ID).
func GroupByProduct(alerts []dto.ReorderAlertDTO) []dto.ReorderGroupDTO {
	return groupAlerts(alerts, func(a dto.ReorderAlertDTO) (string, string) { return a.ProductID, a.ProductName })
}

func groupAlerts(alerts []dto.ReorderAlertDTO, key func(dto.ReorderAlertDTO) (string, string)) []dto.ReorderGroupDTO {
	index := make(map[string]int)
	groups := make([]dto.ReorderGroupDTO, 0)
	for _, a := range alerts {
		id, name := key(a)
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, dto.ReorderGroupDTO{ID: id, Name: name, Alerts: []dto.ReorderAlertDTO{}})
		}
		g := &groups[i]
		g.Alerts = append(g.Alerts, a)
		if a.Severity == SeverityCritical {
			g.Critical++
		} else {
			g.Low++
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})
	return groups
}

// ReorderAlerts devuelve todas las alertas vigentes.
func (uc *QueryUseCase) ReorderAlerts(ctx context.Context) ([]dto.ReorderAlertDTO, error) {
	rows, err := uc.balances.ListWithCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return BuildAlerts(rows), nil
}

// ReorderSummary agrega las alertas por ubicación y por producto.
func (uc *QueryUseCase) ReorderSummary(ctx context.Context) (*dto.ReorderSummaryDTO, error) {
	alerts, err := uc.ReorderAlerts(ctx)
	if err != nil {
		return nil, err
	}
	summary := &dto.ReorderSummaryDTO{
		TotalAlerts: len(alerts),
		ByLocation:  GroupByLocation(alerts),
		ByProduct:   GroupByProduct(alerts),
	}
	for _, a := range alerts {
		if a.Severity == SeverityCritical {
			summary.Critical++
		} else {
			summary.Low++
		}
	}
	return summary, nil
}

// ReorderSuggestion sugiere max(0, reorderLevel - totalStock) para un producto.
// Producto y total se consultan en paralelo.
func (uc *QueryUseCase) ReorderSuggestion(ctx context.Context, productID string) (*dto.ReorderSuggestionDTO, error) {
	var (
		product *entity.Product
		total   decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.products.GetByID(gctx, productID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		product = p
		return nil
	})
	g.Go(func() error {
		t, err := uc.total(gctx, productID)
		if err != nil {
			return err
		}
		total = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "product", ID: productID}
	}
	suggested := product.ReorderLevel.Sub(total)
	if suggested.IsNegative() {
		suggested = decimal.Zero
	}
	return &dto.ReorderSuggestionDTO{
		ProductID:         product.ID,
		ProductName:       product.Name,
		SKU:               product.SKU,
		ReorderLevel:      product.ReorderLevel,
		TotalStock:        total,
		SuggestedQuantity: suggested,
	}, nil
}
