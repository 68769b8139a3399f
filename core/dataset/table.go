package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/tradeflow/core/model"
)

// ErrYearNotFound is returned when a table has no column for the requested
// year.
var ErrYearNotFound = errors.New("year not found")

// Table holds one quantity per country and year, such as the export or the
// import totals. Missing cells are absent rather than zero.
type Table struct {
	Name      string
	countries []string
	years     map[int]struct{}
	values    map[string]map[int]int64
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{
		Name:   name,
		years:  make(map[int]struct{}),
		values: make(map[string]map[int]int64),
	}
}

// AddYear declares a year column, even if every cell of it is missing.
func (t *Table) AddYear(year int) {
	t.years[year] = struct{}{}
}

// AddCountry declares a country row in order of appearance.
func (t *Table) AddCountry(country string) {
	if _, ok := t.values[country]; ok {
		return
	}
	t.values[country] = make(map[int]int64)
	t.countries = append(t.countries, country)
}

// Add accumulates q into the cell. The missing-data sentinel is ignored.
// Rows repeated for the same country are summed.
func (t *Table) Add(country string, year int, q int64) {
	t.AddCountry(country)
	t.AddYear(year)
	if q == model.MissingValue {
		return
	}
	t.values[country][year] += q
}

// Countries returns the row names in order of appearance.
func (t *Table) Countries() []string {
	return append([]string(nil), t.countries...)
}

// Years returns the declared year columns in ascending order.
func (t *Table) Years() []int {
	out := make([]int, 0, len(t.years))
	for y := range t.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// HasYear reports whether the table declares the year column.
func (t *Table) HasYear(year int) bool {
	_, ok := t.years[year]
	return ok
}

// Value returns the cell and whether it holds data.
func (t *Table) Value(country string, year int) (int64, bool) {
	row, ok := t.values[country]
	if !ok {
		return 0, false
	}
	q, ok := row[year]
	return q, ok
}

// Vector returns the strictly positive entries of a year column.
func (t *Table) Vector(year int) (model.Vector, error) {
	if !t.HasYear(year) {
		return nil, fmt.Errorf("%s: %w: %d", t.Name, ErrYearNotFound, year)
	}
	v := make(model.Vector)
	for _, c := range t.countries {
		if q, ok := t.values[c][year]; ok && q > 0 {
			v[c] = q
		}
	}
	return v, nil
}

// YearTotal sums the year column over all countries with data.
func (t *Table) YearTotal(year int) int64 {
	var sum int64
	for _, c := range t.countries {
		if q, ok := t.values[c][year]; ok {
			sum += q
		}
	}
	return sum
}
