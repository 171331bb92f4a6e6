package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesGrid() [][]string {
	return [][]string{
		{"Отчет по продажам", ""},
		{"", ""},
		{HeaderSentinel, ColClientName, ColProductCode, ColProductName, ColRevenue},
		{"garbage", "before first marker", "X", "X", "999"},
		{"01.03.2024", "", "", "", ""},
		{"A100", "ООО Ромашка", "P1", "Труба", "1000"},
		{"", "", "", "", ""},
		{"01.04.2024", "", "", "", ""},
		{"A100", "ООО Ромашка", "P1", "Труба", "2000"},
	}
}

func TestNormalizeForwardFillsDates(t *testing.T) {
	rows, err := Normalize(salesGrid())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "01.03.2024", rows[0].Date)
	assert.Equal(t, 2024, rows[0].Year)
	assert.Equal(t, 3, rows[0].Month)
	assert.Equal(t, "1000", rows[0].Cell(ColRevenue))

	assert.Equal(t, "01.04.2024", rows[1].Date)
	assert.Equal(t, 4, rows[1].Month)
	assert.Equal(t, "2000", rows[1].Cell(ColRevenue))

	for _, row := range rows {
		assert.Equal(t, RecordTypeActual, row.Type)
	}
}

func TestNormalizeDropsRowsBeforeFirstMarker(t *testing.T) {
	rows, err := Normalize(salesGrid())
	require.NoError(t, err)

	for _, row := range rows {
		assert.NotEqual(t, "garbage", row.Cell(ColClientCode))
	}
}

func TestNormalizeMissingSentinel(t *testing.T) {
	grid := [][]string{
		{"Some", "other", "header"},
		{"A100", "ООО Ромашка", "1000"},
	}

	_, err := Normalize(grid)
	require.Error(t, err)

	var structural *StructuralFormatError
	require.True(t, errors.As(err, &structural))
	assert.Contains(t, structural.Missing, HeaderSentinel)
}

func TestNormalizeMissingIdentityColumn(t *testing.T) {
	grid := [][]string{
		{HeaderSentinel, ColProductCode, ColRevenue},
		{"A100", "P1", "1000"},
	}

	_, err := Normalize(grid)
	var structural *StructuralFormatError
	require.True(t, errors.As(err, &structural))
	assert.Contains(t, structural.Missing, ColClientName)
}

func TestNormalizeSkipsUnparseableDateSections(t *testing.T) {
	grid := [][]string{
		{HeaderSentinel, ColClientName, ColRevenue},
		{"итого за март", "", ""},
		{"A100", "ООО Ромашка", "1000"},
		{"01.05.2024", "", ""},
		{"B200", "ООО Лютик", "500"},
	}

	rows, err := Normalize(grid)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B200", rows[0].Cell(ColClientCode))
}

func TestNormalizeEmptyGrid(t *testing.T) {
	_, err := Normalize(nil)
	require.Error(t, err)
}

func TestNormalizeTrimsHeaderWhitespace(t *testing.T) {
	grid := [][]string{
		{HeaderSentinel, "  " + ColClientName + "  ", ColRevenue},
		{"01.03.2024", "", ""},
		{"A100", "ООО Ромашка", "1000"},
	}

	rows, err := Normalize(grid)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ООО Ромашка", rows[0].Cell(ColClientName))
}

func TestFlattenHeaders(t *testing.T) {
	grid := [][]string{
		{"Номенклатура", "", "Выпуск"},
		{"", "Характеристика", "План"},
		{"данные", "данные", "данные"},
	}

	headers := FlattenHeaders(grid, 2)
	require.Len(t, headers, 3)
	assert.Equal(t, "Номенклатура", headers[0])
	assert.Equal(t, "Характеристика", headers[1])
	assert.Equal(t, "Выпуск План", headers[2])
}
