package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/pipeline"
)

// FactRepository writes the fact tables. Every write takes the source's
// declared mode: append accumulates immutable batches, replace discards the
// prior batch in the same transaction the new one lands in.
type FactRepository struct {
	db *DB
}

func NewFactRepository(db *DB) *FactRepository {
	return &FactRepository{db: db}
}

func (r *FactRepository) WriteSales(ctx context.Context, facts []domain.SalesFact, mode pipeline.WriteMode) error {
	query := `
		INSERT INTO sales (year, month, type, client_code, manager, product_code, product_name, comment, revenue)
		VALUES (:year, :month, :type, :client_code, :manager, :product_code, :product_name, :comment, :revenue)
	`
	return r.write(ctx, "sales", query, facts, len(facts), mode)
}

func (r *FactRepository) WriteStockBalances(ctx context.Context, rows []domain.StockBalance, mode pipeline.WriteMode) error {
	query := `
		INSERT INTO stock_balance (article, nomenclature, nomenclature_type, warehouse, quantity, value, date_updated, report_date)
		VALUES (:article, :nomenclature, :nomenclature_type, :warehouse, :quantity, :value, :date_updated, :report_date)
	`
	return r.write(ctx, "stock_balance", query, rows, len(rows), mode)
}

func (r *FactRepository) WriteProduction(ctx context.Context, rows []domain.ProductionExec, mode pipeline.WriteMode) error {
	query := `
		INSERT INTO production_exec (article, nomenclature_desc, plan, fact, date_updated)
		VALUES (:article, :nomenclature_desc, :plan, :fact, :date_updated)
	`
	return r.write(ctx, "production_exec", query, rows, len(rows), mode)
}

func (r *FactRepository) WritePurchases(ctx context.Context, rows []domain.Purchase, mode pipeline.WriteMode) error {
	query := `
		INSERT INTO purchases (supplier, product, quantity, price_per_unit, total, total_with_vat, report_date)
		VALUES (:supplier, :product, :quantity, :price_per_unit, :total, :total_with_vat, :report_date)
	`
	return r.write(ctx, "purchases", query, rows, len(rows), mode)
}

// write lands one batch per the mode. A replace with an empty batch still
// clears the table: the newest report is authoritative even when empty.
func (r *FactRepository) write(ctx context.Context, table, query string, rows interface{}, n int, mode pipeline.WriteMode) error {
	if mode == pipeline.WriteReplace {
		return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
			if n == 0 {
				return nil
			}
			if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
			return nil
		})
	}
	if n == 0 {
		return nil
	}
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
