// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a reference-table entity keyed by the 1C client code. Rows are
// inserted once when a report first mentions the code and never updated by
// the ingestion pipeline.
type Client struct {
	Code     string `json:"code" db:"code"`
	Name     string `json:"name" db:"name"`
	HeadName string `json:"head_name" db:"head_name"`
	Region   string `json:"region" db:"region"`
	Type     string `json:"type" db:"type"`
}

// Product is a reference-table entity keyed by the nomenclature code.
// Subcategory is resolved by fuzzy match against already-known products.
type Product struct {
	Code        string `json:"code" db:"code"`
	VendorCode  string `json:"vendor_code" db:"vendor_code"`
	Name        string `json:"name" db:"name"`
	Type        string `json:"type" db:"type"`
	Unit        string `json:"unit" db:"unit"`
	Ord         int    `json:"ord" db:"ord"`
	CodeAP      string `json:"code_ap" db:"code_ap"`
	Subcategory string `json:"subcategory" db:"subcategory"`
}

// SalesFact is one pivoted row per (client, product, year, month, type).
type SalesFact struct {
	ID          int64           `json:"id" db:"id"`
	Year        int             `json:"year" db:"year"`
	Month       int             `json:"month" db:"month"`
	Type        string          `json:"type" db:"type"`
	ClientCode  string          `json:"client_code" db:"client_code"`
	Manager     string          `json:"manager" db:"manager"`
	ProductCode string          `json:"product_code" db:"product_code"`
	ProductName string          `json:"product_name" db:"product_name"`
	Comment     string          `json:"comment" db:"comment"`
	Revenue     decimal.Decimal `json:"revenue" db:"revenue"`
}

// StockBalance is an append-only warehouse snapshot row; snapshots for the
// same article/warehouse are disambiguated by ReportDate.
type StockBalance struct {
	Article          string          `json:"article" db:"article"`
	Nomenclature     string          `json:"nomenclature" db:"nomenclature"`
	NomenclatureType string          `json:"nomenclature_type" db:"nomenclature_type"`
	Warehouse        string          `json:"warehouse" db:"warehouse"`
	Quantity         float64         `json:"quantity" db:"quantity"`
	Value            decimal.Decimal `json:"value" db:"value"`
	DateUpdated      time.Time       `json:"date_updated" db:"date_updated"`
	ReportDate       string          `json:"report_date" db:"report_date"`
}

// ProductionExec is a plan-vs-fact execution row. The whole table is
// replaced on every run; it is a single current snapshot, not a series.
type ProductionExec struct {
	ID               int64     `json:"id" db:"id"`
	Article          string    `json:"article" db:"article"`
	NomenclatureDesc string    `json:"nomenclature_desc" db:"nomenclature_desc"`
	Plan             float64   `json:"plan" db:"plan"`
	Fact             float64   `json:"fact" db:"fact"`
	DateUpdated      time.Time `json:"date_updated" db:"date_updated"`
}

// Purchase is an append-only supplier purchase row keyed by report date.
type Purchase struct {
	ID           int64           `json:"id" db:"id"`
	Supplier     string          `json:"supplier" db:"supplier"`
	Product      string          `json:"product" db:"product"`
	Quantity     float64         `json:"quantity" db:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`
	Total        decimal.Decimal `json:"total" db:"total"`
	TotalWithVAT decimal.Decimal `json:"total_with_vat" db:"total_with_vat"`
	ReportDate   string          `json:"report_date" db:"report_date"`
}

// RunStatus tracks the lifecycle of one ingestion run.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// IngestionRun records a single execution of a source pipeline.
type IngestionRun struct {
	ID          string     `json:"id" db:"id"`
	Source      string     `json:"source" db:"source"`
	Status      RunStatus  `json:"status" db:"status"`
	RowsWritten int        `json:"rows_written" db:"rows_written"`
	Subject     string     `json:"subject" db:"subject"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	Error       string     `json:"error" db:"error"`
}
