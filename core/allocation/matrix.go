package allocation

import (
	"math"
	"math/bits"

	"github.com/kilianp07/tradeflow/core/model"
)

// Matrix is a dense exporter x importer allocation. Rows and columns follow the
// lexical order of the country names so that every strategy iterates in a
// reproducible order.
type Matrix struct {
	Exporters []string
	Importers []string
	Cells     [][]int64

	importerIdx map[string]int
}

// NewMatrix returns a zero matrix for the given supply and demand.
func NewMatrix(supply, demand model.Vector) *Matrix {
	m := &Matrix{
		Exporters:   supply.Names(),
		Importers:   demand.Names(),
		importerIdx: make(map[string]int, len(demand)),
	}
	for i, n := range m.Importers {
		m.importerIdx[n] = i
	}
	m.Cells = make([][]int64, len(m.Exporters))
	for r := range m.Cells {
		m.Cells[r] = make([]int64, len(m.Importers))
	}
	return m
}

// Add increases the cell (exporter row r, importer name) by q.
func (m *Matrix) Add(r int, importer string, q int64) {
	m.Cells[r][m.importerIdx[importer]] += q
}

// RowSum returns the total allocated for exporter row r.
func (m *Matrix) RowSum(r int) int64 {
	var sum int64
	for _, q := range m.Cells[r] {
		sum += q
	}
	return sum
}

// ColSum returns the total allocated to importer column c.
func (m *Matrix) ColSum(c int) int64 {
	var sum int64
	for r := range m.Cells {
		sum += m.Cells[r][c]
	}
	return sum
}

// Flows converts the matrix into records for year, omitting empty cells.
func (m *Matrix) Flows(year int) []model.Flow {
	var out []model.Flow
	for r, e := range m.Exporters {
		for c, i := range m.Importers {
			if q := m.Cells[r][c]; q > 0 {
				out = append(out, model.Flow{Exporter: e, Importer: i, Year: year, Quantity: q})
			}
		}
	}
	return out
}

// mulDiv returns floor(a*b/d) for non-negative operands. The 128-bit
// intermediate keeps large national totals from overflowing; callers pass
// b <= d so the quotient never exceeds a.
func mulDiv(a, b, d int64) int64 {
	if d <= 0 || a <= 0 || b <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(d))
	return int64(q)
}

// mulDivRem returns floor(a*b/d) and the remainder (a*b) mod d, with b <= d.
func mulDivRem(a, b, d int64) (int64, int64) {
	if d <= 0 || a <= 0 || b <= 0 {
		return 0, 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		return math.MaxInt64, 0
	}
	q, r := bits.Div64(hi, lo, uint64(d))
	return int64(q), int64(r)
}
