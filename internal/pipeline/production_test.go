package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stn-analytics/stn-dashboard/internal/report"
)

func productionGrid() [][]string {
	return [][]string{
		{"Исполнение производства", "", "", ""},
		{"Артикул", "Номенклатура,", "Выпуск", ""},
		{"", "Характеристика", "План", "Факт"},
		{"TR-20", "Труба 20мм", "100", "95"},
		{"TR-25", "Труба 25мм", "50", "нет данных"},
		{"Итого", "", "150", "95"},
	}
}

func TestParseProduction(t *testing.T) {
	now := time.Now()

	rows, err := ParseProduction(productionGrid(), now)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "TR-20", rows[0].Article)
	assert.Equal(t, "Труба 20мм", rows[0].NomenclatureDesc)
	assert.Equal(t, 100.0, rows[0].Plan)
	assert.Equal(t, 95.0, rows[0].Fact)
	assert.Equal(t, now, rows[0].DateUpdated)
}

func TestParseProductionCoercesBadCellsToZero(t *testing.T) {
	rows, err := ParseProduction(productionGrid(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 50.0, rows[1].Plan)
	assert.Equal(t, 0.0, rows[1].Fact)
}

func TestParseProductionDropsTotalRow(t *testing.T) {
	rows, err := ParseProduction(productionGrid(), time.Now())
	require.NoError(t, err)

	for _, row := range rows {
		assert.NotEqual(t, "Итого", row.Article)
	}
}

func TestParseProductionMissingColumns(t *testing.T) {
	grid := [][]string{
		{"Другой", "отчет", ""},
		{"без", "нужных", "колонок"},
		{"", "", ""},
		{"данные", "данные", "данные"},
	}

	_, err := ParseProduction(grid, time.Now())
	require.Error(t, err)

	var structural *report.StructuralFormatError
	require.True(t, errors.As(err, &structural))
	assert.Contains(t, structural.Missing, "Артикул")
	assert.Contains(t, structural.Missing, "План")
}

func TestParseProductionTooShortGrid(t *testing.T) {
	_, err := ParseProduction([][]string{{"Артикул"}}, time.Now())
	require.Error(t, err)
}
