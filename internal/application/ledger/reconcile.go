package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type pairKey struct{ product, location string }

// Reconcile recalcula la suma de deltas del log por par y la compara con el saldo materializado.
// Solo reporta; nunca repara. Con escrituras concurrentes puede reportar diferencias transitorias.
func (uc *QueryUseCase) Reconcile(ctx context.Context) (*dto.ReconcileReportDTO, error) {
	var (
		totals []repository.PairTotal
		rows   []repository.BalanceWithCatalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = uc.transactions.SumDeltasByPair(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = uc.balances.ListWithCatalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return CompareBalances(totals, rows), nil
}

// CompareBalances arma el reporte de diferencias. Un par ausente en un lado cuenta como cero.
func CompareBalances(totals []repository.PairTotal, rows []repository.BalanceWithCatalog) *dto.ReconcileReportDTO {
	ledgerTotals := make(map[pairKey]decimal.Decimal, len(totals))
	for _, t := range totals {
		ledgerTotals[pairKey{t.ProductID, t.LocationID}] = t.Total
	}
	materialized := make(map[pairKey]decimal.Decimal, len(rows))
	for _, r := range rows {
		materialized[pairKey{r.ProductID, r.LocationID}] = r.Quantity
	}
	keys := make(map[pairKey]struct{}, len(ledgerTotals)+len(materialized))
	for k := range ledgerTotals {
		keys[k] = struct{}{}
	}
	for k := range materialized {
		keys[k] = struct{}{}
	}

	report := &dto.ReconcileReportDTO{CheckedPairs: len(keys), Drifts: []dto.BalanceDriftDTO{}}
	for k := range keys {
		lt := ledgerTotals[k]
		bal := materialized[k]
		if !lt.Equal(bal) {
			report.Drifts = append(report.Drifts, dto.BalanceDriftDTO{
				ProductID:   k.product,
				LocationID:  k.location,
				LedgerTotal: lt,
				Balance:     bal,
			})
		}
	}
	sort.Slice(report.Drifts, func(i, j int) bool {
		if report.Drifts[i].ProductID != report.Drifts[j].ProductID {
			return report.Drifts[i].ProductID < report.Drifts[j].ProductID
		}
		return report.Drifts[i].LocationID < report.Drifts[j].LocationID
	})
	report.Consistent = len(report.Drifts) == 0
	return report
}
