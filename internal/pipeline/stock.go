package pipeline

import (
	"strings"
	"time"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

// Expected columns of the warehouse balance unload.
const (
	colWarehouse    = "Склад"
	colNomenclature = "Номенклатура"
	colArticle      = "Артикул"
	colQuantity     = "Количество"
	colValue        = "Оценка"
)

// ParseStock converts the stock balance grid into snapshot rows. This source
// is a straight column-rename-and-append keyed by the report date; no
// aggregation happens here.
func ParseStock(grid [][]string, reportDate string, now time.Time) ([]domain.StockBalance, error) {
	headerIdx, index := locateStockHeader(grid)
	if headerIdx < 0 {
		return nil, &report.StructuralFormatError{Missing: []string{colWarehouse}}
	}

	var missing []string
	for _, label := range []string{colWarehouse, colNomenclature, colArticle, colQuantity, colValue} {
		if _, ok := index[label]; !ok {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return nil, &report.StructuralFormatError{Missing: missing}
	}

	var out []domain.StockBalance
	for _, row := range grid[headerIdx+1:] {
		article := cellAt(row, index[colArticle])
		nomenclature := cellAt(row, index[colNomenclature])
		if article == "" && nomenclature == "" {
			continue
		}
		out = append(out, domain.StockBalance{
			Article:      article,
			Nomenclature: nomenclature,
			Warehouse:    cellAt(row, index[colWarehouse]),
			Quantity:     coerceFloat(cellAt(row, index[colQuantity])),
			Value:        coerceDecimal(cellAt(row, index[colValue])),
			DateUpdated:  now,
			ReportDate:   reportDate,
		})
	}
	return out, nil
}

// locateStockHeader scans for the first row that carries the warehouse
// label; the unload has no fixed header position.
func locateStockHeader(grid [][]string) (int, map[string]int) {
	for i, row := range grid {
		index := make(map[string]int, len(row))
		for c, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := index[v]; !ok {
				index[v] = c
			}
		}
		if _, ok := index[colWarehouse]; ok {
			return i, index
		}
	}
	return -1, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
