package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenCSV(t *testing.T) {
	path := writeCSV(t, "code,name,region\nA100,ООО Ромашка,Московская область\nB200,ООО Лютик,\n")

	rows, colMap, err := openCSV(path, "code", "name")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A100", field(rows[0], colMap, "code"))
	assert.Equal(t, "Московская область", field(rows[0], colMap, "region"))
	assert.Equal(t, "", field(rows[1], colMap, "region"))
	assert.Equal(t, "", field(rows[1], colMap, "absent_column"))
}

func TestOpenCSVMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, "code,region\nA100,Московская область\n")

	_, _, err := openCSV(path, "code", "name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestOpenCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "code,name\nA100,ООО Ромашка,лишнее\nB200\n")

	rows, colMap, err := openCSV(path, "code", "name")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", field(rows[1], colMap, "name"))
}

func TestOpenCSVFileNotFound(t *testing.T) {
	_, _, err := openCSV("/nonexistent/clients.csv", "code")
	require.Error(t, err)
}
