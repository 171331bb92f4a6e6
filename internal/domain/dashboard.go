package domain

import "github.com/shopspring/decimal"

// SalesDynamicsPoint is one bar of the sales dynamics chart: revenue summed
// per (year, month, record type).
type SalesDynamicsPoint struct {
	Year    int             `json:"year" db:"year"`
	Month   int             `json:"month" db:"month"`
	Type    string          `json:"type" db:"type"`
	Revenue decimal.Decimal `json:"revenue" db:"revenue"`
}

// StaleStockItem is one row of the slow-moving stock table. StorageMonths
// counts 30-day periods since the article was first seen in a snapshot.
type StaleStockItem struct {
	Article       string  `json:"article" db:"article"`
	Nomenclature  string  `json:"nomenclature" db:"nomenclature"`
	Warehouse     string  `json:"warehouse" db:"warehouse"`
	Quantity      float64 `json:"quantity" db:"quantity"`
	FirstSeen     string  `json:"first_seen" db:"first_seen"`
	StorageMonths int     `json:"storage_months" db:"storage_months"`
}

// ProductionSummaryRow is one article of the plan-vs-fact report.
type ProductionSummaryRow struct {
	Article          string  `json:"article" db:"article"`
	NomenclatureDesc string  `json:"nomenclature_desc" db:"nomenclature_desc"`
	Plan             float64 `json:"plan" db:"plan"`
	Fact             float64 `json:"fact" db:"fact"`
}

// PurchaseTotal aggregates one purchase batch by its report date.
type PurchaseTotal struct {
	ReportDate   string          `json:"report_date" db:"report_date"`
	Positions    int             `json:"positions" db:"positions"`
	Total        decimal.Decimal `json:"total" db:"total"`
	TotalWithVAT decimal.Decimal `json:"total_with_vat" db:"total_with_vat"`
}

// SalesFilter narrows the sales dynamics query.
type SalesFilter struct {
	Year int    `json:"year"`
	Type string `json:"type"`
}
