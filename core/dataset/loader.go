package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a country x year table from a .csv or .xlsx file. The table is
// named after the file.
func Load(path string) (*Table, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f, name)
	case ".xlsx":
		return ReadXLSX(path, name)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", path)
	}
}

// ReadCSV parses a table whose header is "Country" followed by year columns.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return FromRows(name, rows)
}

// FromRows builds a table from raw rows. The first row is the header. The
// country column is the one titled "Country" (first column otherwise); year
// columns are "YYYY" or crop-year headers "YYYY/YY", which map to their first
// year. Other columns such as totals are ignored.
func FromRows(name string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty table", name)
	}
	header := rows[0]
	countryCol := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "country") {
			countryCol = i
			break
		}
	}
	yearCols := make(map[int]int)
	t := NewTable(name)
	for i, h := range header {
		if i == countryCol {
			continue
		}
		if y, ok := ParseYearHeader(h); ok {
			yearCols[i] = y
			t.AddYear(y)
		}
	}
	if len(yearCols) == 0 {
		return nil, fmt.Errorf("%s: no year columns in header", name)
	}
	for _, row := range rows[1:] {
		if countryCol >= len(row) {
			continue
		}
		country := strings.TrimSpace(row[countryCol])
		if country == "" {
			continue
		}
		t.AddCountry(country)
		for i, y := range yearCols {
			if i >= len(row) {
				continue
			}
			if q, ok := ParseQuantity(row[i]); ok {
				t.Add(country, y, q)
			}
		}
	}
	return t, nil
}

// ParseYearHeader accepts "1990" and "1990/91".
func ParseYearHeader(h string) (int, bool) {
	h = strings.TrimSpace(h)
	if first, _, ok := strings.Cut(h, "/"); ok {
		h = first
	}
	if len(h) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	return y, true
}

// ParseQuantity converts a cell to an integer quantity. Blank, non-numeric and
// NaN cells hold no data, as do values outside the int64 range. Fractional
// values are rounded to the nearest unit.
func ParseQuantity(cell string) (int64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	if q, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return q, true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	if f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}
