package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/tradeflow/core/model"
)

const exportCSV = `Country,1990,1991,1992,Total_export
 Brazil ,1000,-2147483648,1200,2200
Colombia,800,700,,1500
Angola,0,5,abc,5
Brazil,10,1,0,11
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(exportCSV), "exports")
	require.NoError(t, err)

	assert.Equal(t, []string{"Brazil", "Colombia", "Angola"}, tbl.Countries())
	assert.Equal(t, []int{1990, 1991, 1992}, tbl.Years())

	v, err := tbl.Vector(1990)
	require.NoError(t, err)
	assert.Equal(t, model.Vector{"Brazil": 1010, "Colombia": 800}, v)

	v, err = tbl.Vector(1991)
	require.NoError(t, err)
	// The sentinel is absent, not zero, so only the duplicate row contributes.
	assert.Equal(t, model.Vector{"Brazil": 1, "Colombia": 700, "Angola": 5}, v)

	_, ok := tbl.Value("Colombia", 1992)
	assert.False(t, ok)
	_, ok = tbl.Value("Nowhere", 1992)
	assert.False(t, ok)
	assert.Equal(t, int64(1200), tbl.YearTotal(1992))

	_, err = tbl.Vector(2019)
	assert.ErrorIs(t, err, ErrYearNotFound)
}

func TestFromRows_Errors(t *testing.T) {
	_, err := FromRows("empty", nil)
	assert.Error(t, err)
	_, err = FromRows("noyears", [][]string{{"Country", "Total"}})
	assert.Error(t, err)
}

func TestParseYearHeader(t *testing.T) {
	cases := map[string]int{"1990": 1990, "1990/91": 1990, " 2019/20 ": 2019}
	for in, want := range cases {
		y, ok := ParseYearHeader(in)
		require.True(t, ok, in)
		assert.Equal(t, want, y)
	}
	for _, in := range []string{"Country", "Total_import", "19900", "Coffee type"} {
		_, ok := ParseYearHeader(in)
		assert.False(t, ok, in)
	}
}

func TestParseQuantity(t *testing.T) {
	q, ok := ParseQuantity("1,234")
	require.True(t, ok)
	assert.Equal(t, int64(1234), q)
	q, ok = ParseQuantity("12.6")
	require.True(t, ok)
	assert.Equal(t, int64(13), q)
	for _, in := range []string{"", "NaN", "n/a"} {
		_, ok := ParseQuantity(in)
		assert.False(t, ok, in)
	}
}

func TestLoad_CSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "Coffee_import.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Country,1990/91\nGermany,900\n"), 0o644))
	tbl, err := Load(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Coffee_import", tbl.Name)
	v, err := tbl.Vector(1990)
	require.NoError(t, err)
	assert.Equal(t, model.Vector{"Germany": 900}, v)

	xlsxPath := filepath.Join(dir, "production.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Country", "1990/91", "1991/92"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Ethiopia", 300, -2147483648}))
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	tbl, err = Load(xlsxPath)
	require.NoError(t, err)
	v, err = tbl.Vector(1990)
	require.NoError(t, err)
	assert.Equal(t, model.Vector{"Ethiopia": 300}, v)
	v, err = tbl.Vector(1991)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = Load(filepath.Join(dir, "table.parquet"))
	assert.Error(t, err)
}

func TestParseQuantity_OutOfRange(t *testing.T) {
	for _, in := range []string{"1e19", "-1e19", "9223372036854775808.0", "1e300"} {
		_, ok := ParseQuantity(in)
		assert.False(t, ok, in)
	}
	q, ok := ParseQuantity("9.2e18")
	require.True(t, ok)
	assert.Equal(t, int64(9_200_000_000_000_000_000), q)
}
