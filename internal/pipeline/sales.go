package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

// defaultComment fills the free-text comment dimension the fact table
// carries; the unload has no comment column.
const defaultComment = "0"

type salesKey struct {
	Year        int
	Month       int
	Type        string
	ClientCode  string
	Manager     string
	ProductCode string
	ProductName string
	Comment     string
}

// BuildSales pivots normalized rows into the sales fact shape: one row per
// full dimension key with the revenue measure summed. Duplicate keys within
// a batch are summed, never treated as an error. Output order is stable.
func BuildSales(rows []report.Row) []domain.SalesFact {
	sums := make(map[salesKey]decimal.Decimal)
	for _, row := range rows {
		key := salesKey{
			Year:        row.Year,
			Month:       row.Month,
			Type:        row.Type,
			ClientCode:  row.Cell(report.ColClientCode),
			Manager:     row.Cell(report.ColManager),
			ProductCode: row.Cell(report.ColProductCode),
			ProductName: row.Cell(report.ColProductName),
			Comment:     defaultComment,
		}
		sums[key] = sums[key].Add(coerceDecimal(row.Cell(report.ColRevenue)))
	}

	keys := make([]salesKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	// The comparator must cover the full key: keys come out of a map, so
	// any tie would surface the map's random iteration order.
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.Year != b.Year:
			return a.Year < b.Year
		case a.Month != b.Month:
			return a.Month < b.Month
		case a.ClientCode != b.ClientCode:
			return a.ClientCode < b.ClientCode
		case a.ProductCode != b.ProductCode:
			return a.ProductCode < b.ProductCode
		case a.Type != b.Type:
			return a.Type < b.Type
		case a.Manager != b.Manager:
			return a.Manager < b.Manager
		case a.ProductName != b.ProductName:
			return a.ProductName < b.ProductName
		default:
			return a.Comment < b.Comment
		}
	})

	facts := make([]domain.SalesFact, 0, len(keys))
	for _, k := range keys {
		facts = append(facts, domain.SalesFact{
			Year:        k.Year,
			Month:       k.Month,
			Type:        k.Type,
			ClientCode:  k.ClientCode,
			Manager:     k.Manager,
			ProductCode: k.ProductCode,
			ProductName: k.ProductName,
			Comment:     k.Comment,
			Revenue:     sums[k],
		})
	}
	return facts
}
