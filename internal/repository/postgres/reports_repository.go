package postgres

import (
	"context"
	"fmt"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
)

// ReportRepository serves the dashboard read queries.
type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) SalesDynamics(ctx context.Context, filter *domain.SalesFilter) ([]domain.SalesDynamicsPoint, error) {
	query := `
		SELECT year, month, type, SUM(revenue) AS revenue
		FROM sales
		WHERE ($1 = 0 OR year = $1)
		  AND ($2 = '' OR type = $2)
		GROUP BY year, month, type
		ORDER BY year, month, type
	`
	year := 0
	typ := ""
	if filter != nil {
		year = filter.Year
		typ = filter.Type
	}
	var points []domain.SalesDynamicsPoint
	if err := r.db.SelectContext(ctx, &points, query, year, typ); err != nil {
		return nil, fmt.Errorf("select sales dynamics: %w", err)
	}
	return points, nil
}

// StaleStock lists articles held in stock on the given report date together
// with how long they have been sitting there, counted in 30-day periods
// since the article/warehouse pair first appeared in any snapshot.
func (r *ReportRepository) StaleStock(ctx context.Context, reportDate string) ([]domain.StaleStockItem, error) {
	query := `
		SELECT s.article,
		       MAX(s.nomenclature) AS nomenclature,
		       s.warehouse,
		       SUM(s.quantity) AS quantity,
		       TO_CHAR(MIN(f.first_seen), 'YYYY-MM-DD') AS first_seen,
		       FLOOR(($1::date - MIN(f.first_seen)) / 30.0)::int AS storage_months
		FROM stock_balance s
		JOIN (
			SELECT article, warehouse, MIN(report_date) AS first_seen
			FROM stock_balance
			WHERE quantity > 0
			GROUP BY article, warehouse
		) f ON f.article = s.article AND f.warehouse = s.warehouse
		WHERE s.quantity > 0 AND s.report_date = $1::date
		GROUP BY s.article, s.warehouse
		ORDER BY storage_months DESC, s.article
	`
	var items []domain.StaleStockItem
	if err := r.db.SelectContext(ctx, &items, query, reportDate); err != nil {
		return nil, fmt.Errorf("select stale stock: %w", err)
	}
	return items, nil
}

func (r *ReportRepository) StockReportDates(ctx context.Context) ([]string, error) {
	var dates []string
	query := `
		SELECT DISTINCT TO_CHAR(report_date, 'YYYY-MM-DD')
		FROM stock_balance
		ORDER BY 1 DESC
	`
	if err := r.db.SelectContext(ctx, &dates, query); err != nil {
		return nil, fmt.Errorf("select stock report dates: %w", err)
	}
	return dates, nil
}

func (r *ReportRepository) ProductionSummary(ctx context.Context) ([]domain.ProductionSummaryRow, error) {
	var rows []domain.ProductionSummaryRow
	query := `
		SELECT article, nomenclature_desc, plan, fact
		FROM production_exec
		ORDER BY article
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select production summary: %w", err)
	}
	return rows, nil
}

func (r *ReportRepository) PurchaseTotals(ctx context.Context) ([]domain.PurchaseTotal, error) {
	var totals []domain.PurchaseTotal
	query := `
		SELECT TO_CHAR(report_date, 'YYYY-MM-DD') AS report_date,
		       COUNT(*) AS positions,
		       SUM(total) AS total,
		       SUM(total_with_vat) AS total_with_vat
		FROM purchases
		GROUP BY report_date
		ORDER BY report_date DESC
	`
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("select purchase totals: %w", err)
	}
	return totals, nil
}
