// internal/service/report_service.go
package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/domain"
)

// ReportStore is the read side of the dashboard queries.
type ReportStore interface {
	SalesDynamics(ctx context.Context, filter *domain.SalesFilter) ([]domain.SalesDynamicsPoint, error)
	StaleStock(ctx context.Context, reportDate string) ([]domain.StaleStockItem, error)
	StockReportDates(ctx context.Context) ([]string, error)
	ProductionSummary(ctx context.Context) ([]domain.ProductionSummaryRow, error)
	PurchaseTotals(ctx context.Context) ([]domain.PurchaseTotal, error)
}

// RunLister serves the operator run history view.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.IngestionRun, error)
}

// ReportService serves the dashboard queries with a read-through cache in
// front of the report store. Cache misses and backend errors fall through
// to the database; the cache is strictly an accelerator.
type ReportService struct {
	reports ReportStore
	runs    RunLister
	cache   cache.ReportCache
}

func NewReportService(reports ReportStore, runs RunLister, reportCache cache.ReportCache) *ReportService {
	return &ReportService{reports: reports, runs: runs, cache: reportCache}
}

func (s *ReportService) SalesDynamics(ctx context.Context, filter *domain.SalesFilter) ([]domain.SalesDynamicsPoint, error) {
	if filter == nil {
		filter = &domain.SalesFilter{}
	}
	params := []string{strconv.Itoa(filter.Year), filter.Type}

	var cached []domain.SalesDynamicsPoint
	if hit, err := s.cache.Get(ctx, "sales_dynamics", params, &cached); err == nil && hit {
		return cached, nil
	}

	points, err := s.reports.SalesDynamics(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, "sales_dynamics", params, points)
	return points, nil
}

func (s *ReportService) StaleStock(ctx context.Context, reportDate string) ([]domain.StaleStockItem, error) {
	if reportDate == "" {
		dates, err := s.reports.StockReportDates(ctx)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return []domain.StaleStockItem{}, nil
		}
		reportDate = dates[0]
	}

	params := []string{reportDate}
	var cached []domain.StaleStockItem
	if hit, err := s.cache.Get(ctx, "stale_stock", params, &cached); err == nil && hit {
		return cached, nil
	}

	items, err := s.reports.StaleStock(ctx, reportDate)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, "stale_stock", params, items)
	return items, nil
}

func (s *ReportService) StockReportDates(ctx context.Context) ([]string, error) {
	return s.reports.StockReportDates(ctx)
}

func (s *ReportService) ProductionSummary(ctx context.Context) ([]domain.ProductionSummaryRow, error) {
	var cached []domain.ProductionSummaryRow
	if hit, err := s.cache.Get(ctx, "production_summary", nil, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := s.reports.ProductionSummary(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, "production_summary", nil, rows)
	return rows, nil
}

func (s *ReportService) PurchaseTotals(ctx context.Context) ([]domain.PurchaseTotal, error) {
	var cached []domain.PurchaseTotal
	if hit, err := s.cache.Get(ctx, "purchase_totals", nil, &cached); err == nil && hit {
		return cached, nil
	}

	totals, err := s.reports.PurchaseTotals(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, "purchase_totals", nil, totals)
	return totals, nil
}

func (s *ReportService) RecentRuns(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.RecentRuns(ctx, limit)
}

func (s *ReportService) cacheSet(ctx context.Context, name string, params []string, payload interface{}) {
	if err := s.cache.Set(ctx, name, params, payload); err != nil {
		log.Debug().Err(err).Str("report", name).Msg("report cache write failed")
	}
}
