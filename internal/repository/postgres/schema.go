package postgres

import "context"

// Reference tables are append-only for new entities; fact tables are
// immutable after insert. production_exec is the one table replaced
// wholesale each run.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		code       TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		head_name  TEXT NOT NULL DEFAULT '',
		region     TEXT NOT NULL DEFAULT '',
		type       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS regions (
		region TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		code        TEXT PRIMARY KEY,
		vendor_code TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT '',
		unit        TEXT NOT NULL DEFAULT '',
		ord         INTEGER NOT NULL DEFAULT 0,
		code_ap     TEXT NOT NULL DEFAULT '0',
		subcategory TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id           BIGSERIAL PRIMARY KEY,
		year         INTEGER NOT NULL,
		month        INTEGER NOT NULL,
		type         TEXT NOT NULL,
		client_code  TEXT NOT NULL,
		manager      TEXT NOT NULL DEFAULT '',
		product_code TEXT NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		comment      TEXT NOT NULL DEFAULT '0',
		revenue      NUMERIC(18,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS stock_balance (
		article           TEXT NOT NULL DEFAULT '',
		nomenclature      TEXT NOT NULL DEFAULT '',
		nomenclature_type TEXT NOT NULL DEFAULT '',
		warehouse         TEXT NOT NULL DEFAULT '',
		quantity          DOUBLE PRECISION NOT NULL DEFAULT 0,
		value             NUMERIC(18,2) NOT NULL DEFAULT 0,
		date_updated      TIMESTAMPTZ NOT NULL,
		report_date       DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS production_exec (
		id                BIGSERIAL PRIMARY KEY,
		article           TEXT NOT NULL DEFAULT '',
		nomenclature_desc TEXT NOT NULL DEFAULT '',
		plan              DOUBLE PRECISION NOT NULL DEFAULT 0,
		fact              DOUBLE PRECISION NOT NULL DEFAULT 0,
		date_updated      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id             BIGSERIAL PRIMARY KEY,
		supplier       TEXT NOT NULL,
		product        TEXT NOT NULL,
		quantity       DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_per_unit NUMERIC(18,2) NOT NULL DEFAULT 0,
		total          NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_with_vat NUMERIC(18,2) NOT NULL DEFAULT 0,
		report_date    DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingestion_runs (
		id           UUID PRIMARY KEY,
		source       TEXT NOT NULL,
		status       TEXT NOT NULL,
		rows_written INTEGER NOT NULL DEFAULT 0,
		subject      TEXT NOT NULL DEFAULT '',
		started_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		error        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_period ON sales (year, month, type)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_balance_report_date ON stock_balance (report_date)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_report_date ON purchases (report_date)`,
}

// Migrate applies the schema; every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
