package report

import (
	"strings"
	"time"
)

// Column labels of the 1C sales unload. The header row is located by the
// sentinel in the first column; everything above it is noise.
const (
	HeaderSentinel = "Клиент.Код"
	identityColumn = "Клиент.Наименование"

	// RecordTypeActual tags every row of this ingestion source; plan/budget
	// series arrive through a different channel.
	RecordTypeActual = "Факт"

	// DateLayout is the day.month.year textual format of marker rows.
	DateLayout = "02.01.2006"
)

// Remaining column labels of the sales unload.
const (
	ColClientCode    = HeaderSentinel
	ColClientName    = identityColumn
	ColClientHead    = "Клиент.Головной контрагент"
	ColClientType    = "Клиент.Тип"
	ColClientAddress = "Клиент.Адрес"
	ColManager       = "Клиент.Основной менеджер"

	ColProductCode   = "Номенклатура.Код"
	ColProductVendor = "Номенклатура.Артикул"
	ColProductName   = "Номенклатура.Наименование"
	ColProductType   = "Номенклатура.Тип"
	ColProductUnit   = "Номенклатура.Единица"

	ColRevenue = "Выручка"
)

// Row is one cleaned data row of a report: its cells keyed by header label
// plus the date inherited from the nearest marker row above it.
type Row struct {
	Cells map[string]string
	Date  string
	Year  int
	Month int
	Type  string
}

// Cell returns the value under the given header label, "" when absent.
func (r Row) Cell(label string) string {
	return r.Cells[label]
}

// Normalize converts a raw, irregularly-headered grid into clean data rows.
//
// The grid carries repeated date sections: a marker row holding only a date
// stamp in the first column heads a block of data rows. Every data row
// inherits the date of the nearest marker at or above it; rows before the
// first marker have no assignable date and are dropped, as are the marker
// rows themselves, fully-empty rows, and rows whose date does not parse.
func Normalize(grid [][]string) ([]Row, error) {
	headerIdx := -1
	for i, row := range grid {
		if cell(row, 0) == HeaderSentinel {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, newStructuralError(HeaderSentinel)
	}

	headers := make([]string, len(grid[headerIdx]))
	for i, h := range grid[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}
	identityIdx := -1
	for i, h := range headers {
		if h == identityColumn {
			identityIdx = i
			break
		}
	}
	if identityIdx < 0 {
		return nil, newStructuralError(identityColumn)
	}

	data := grid[headerIdx+1:]

	// Ordered positions of marker rows. A marker row has no identity value
	// and carries the section date in the first column.
	var markers []int
	for i, row := range data {
		if cell(row, identityIdx) == "" && cell(row, 0) != "" {
			markers = append(markers, i)
		}
	}

	var out []Row
	next := 0 // index into markers of the first marker past the current one
	for i, row := range data {
		for next < len(markers) && markers[next] <= i {
			next++
		}
		if next == 0 {
			// before the first marker: no assignable date
			continue
		}
		if markers[next-1] == i {
			// the marker row itself
			continue
		}
		if rowEmpty(row) || cell(row, identityIdx) == "" {
			continue
		}

		date := cell(data[markers[next-1]], 0)
		year, month, ok := parseReportDate(date)
		if !ok {
			continue
		}

		cells := make(map[string]string, len(headers))
		for c, h := range headers {
			if h == "" {
				continue
			}
			cells[h] = cell(row, c)
		}
		out = append(out, Row{
			Cells: cells,
			Date:  date,
			Year:  year,
			Month: month,
			Type:  RecordTypeActual,
		})
	}

	return out, nil
}

func parseReportDate(s string) (year, month int, ok bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), int(t.Month()), true
}

// FlattenHeaders merges the first depth rows of a grid into one header row,
// joining the non-empty fragments of each column with a space. Multi-row
// headers are common in 1C production unloads.
func FlattenHeaders(grid [][]string, depth int) []string {
	if depth > len(grid) {
		depth = len(grid)
	}
	width := 0
	for _, row := range grid[:depth] {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for r := 0; r < depth; r++ {
			if v := cell(grid[r], c); v != "" {
				parts = append(parts, v)
			}
		}
		headers[c] = strings.Join(parts, " ")
	}
	return headers
}
