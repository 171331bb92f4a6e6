package pipeline

import (
	"strings"
	"time"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
	"github.com/stn-analytics/stn-dashboard/internal/report"
)

// The production execution unload carries a three-row header; flattened
// column names are located by substring, not exact match.
const productionHeaderDepth = 3

const totalRowLabel = "итого"

// ParseProduction converts the production execution grid into plan-vs-fact
// rows. Plan and fact cells that fail numeric parse become zero; the
// summary row is dropped.
func ParseProduction(grid [][]string, now time.Time) ([]domain.ProductionExec, error) {
	if len(grid) <= productionHeaderDepth {
		return nil, &report.StructuralFormatError{Missing: []string{"Артикул"}}
	}
	headers := report.FlattenHeaders(grid, productionHeaderDepth)

	artCol := findHeader(headers, "Артикул")
	descCol := findHeaderAll(headers, "Номенклатура", "Характеристика")
	planCol := findHeader(headers, "План")
	factCol := findHeader(headers, "Факт")

	var missing []string
	for _, c := range []struct {
		label string
		col   int
	}{
		{"Артикул", artCol},
		{"Номенклатура Характеристика", descCol},
		{"План", planCol},
		{"Факт", factCol},
	} {
		if c.col < 0 {
			missing = append(missing, c.label)
		}
	}
	if len(missing) > 0 {
		return nil, &report.StructuralFormatError{Missing: missing}
	}

	var out []domain.ProductionExec
	for _, row := range grid[productionHeaderDepth:] {
		article := cellAt(row, artCol)
		if strings.ToLower(article) == totalRowLabel {
			continue
		}
		desc := cellAt(row, descCol)
		if article == "" && desc == "" {
			continue
		}
		out = append(out, domain.ProductionExec{
			Article:          article,
			NomenclatureDesc: desc,
			Plan:             coerceFloat(cellAt(row, planCol)),
			Fact:             coerceFloat(cellAt(row, factCol)),
			DateUpdated:      now,
		})
	}
	return out, nil
}

func findHeader(headers []string, substr string) int {
	for i, h := range headers {
		if strings.Contains(h, substr) {
			return i
		}
	}
	return -1
}

func findHeaderAll(headers []string, substrs ...string) int {
	for i, h := range headers {
		all := true
		for _, s := range substrs {
			if !strings.Contains(h, s) {
				all = false
				break
			}
		}
		if all {
			return i
		}
	}
	return -1
}
