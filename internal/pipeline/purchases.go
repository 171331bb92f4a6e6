package pipeline

import (
	"strings"
	"time"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

// Fixed column positions of the purchase list; the file always arrives in
// this shape, with two header rows ahead of the data.
const (
	purchaseColProduct      = 0
	purchaseColSupplier     = 1
	purchaseColQuantity     = 2
	purchaseColPrice        = 3
	purchaseColTotal        = 4
	purchaseColTotalWithVAT = 5

	purchaseDataStartRow = 2
)

// ParsePurchases converts the supplier purchase grid into fact rows. Rows
// lacking a supplier, a product, or a numeric quantity are skipped; price
// and total cells coerce to zero.
func ParsePurchases(grid [][]string, reportDate string) ([]domain.Purchase, error) {
	if len(grid) <= purchaseDataStartRow {
		return nil, &report.StructuralFormatError{Missing: []string{"Поставщик"}}
	}

	var out []domain.Purchase
	for _, row := range grid[purchaseDataStartRow:] {
		supplier := cellAt(row, purchaseColSupplier)
		product := cellAt(row, purchaseColProduct)
		quantity, ok := parseFloat(cellAt(row, purchaseColQuantity))
		if supplier == "" || product == "" || !ok {
			continue
		}
		out = append(out, domain.Purchase{
			Supplier:     supplier,
			Product:      product,
			Quantity:     quantity,
			PricePerUnit: coerceDecimal(cellAt(row, purchaseColPrice)),
			Total:        coerceDecimal(cellAt(row, purchaseColTotal)),
			TotalWithVAT: coerceDecimal(cellAt(row, purchaseColTotalWithVAT)),
			ReportDate:   reportDate,
		})
	}
	return out, nil
}

// ReportDateFromSubject extracts the first day.month.year-shaped token from
// a mail subject, normalized to ISO date. Falls back to today when the
// subject carries no date.
func ReportDateFromSubject(subject string, now time.Time) string {
	for _, token := range strings.Fields(subject) {
		if t, err := time.Parse(report.DateLayout, token); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return now.Format("2006-01-02")
}
