package allocation

import (
	"sort"

	"github.com/kilianp07/tradeflow/core/model"
)

// Correct forces every exporter row of m to sum exactly to its supply.
//
// A shortfall is handed out one unit at a time to the importers of the row in
// descending order of their current allocation (ties by importer name), cycling
// until the row is complete. When targets is non-nil, importers whose column
// already reached its target are skipped for as long as another importer is
// still below target. A surplus is removed one unit at a time in the same order,
// skipping empty cells. Rows that already match are left untouched, so applying
// Correct twice is the same as applying it once.
func Correct(m *Matrix, supply, targets model.Vector) {
	if len(m.Importers) == 0 {
		return
	}
	var colRes []int64
	if targets != nil {
		colRes = make([]int64, len(m.Importers))
		for c, i := range m.Importers {
			colRes[c] = targets[i] - m.ColSum(c)
		}
	}
	for r, e := range m.Exporters {
		diff := supply[e] - m.RowSum(r)
		if diff == 0 {
			continue
		}
		order := correctionOrder(m, r)
		if diff < 0 {
			removeSurplus(m.Cells[r], order, -diff, colRes)
			continue
		}
		if colRes != nil {
			diff = fillTowardTargets(m.Cells[r], order, diff, colRes)
		}
		if diff > 0 {
			fillShortfall(m.Cells[r], order, diff, colRes)
		}
	}
}

func correctionOrder(m *Matrix, r int) []int {
	row := m.Cells[r]
	order := make([]int, len(row))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := row[order[a]], row[order[b]]
		if ca != cb {
			return ca > cb
		}
		return m.Importers[order[a]] < m.Importers[order[b]]
	})
	return order
}

// fillTowardTargets cycles through importers still below their column target.
// Whole rounds are applied in bulk. It returns the units it could not place.
func fillTowardTargets(row []int64, order []int, diff int64, colRes []int64) int64 {
	for diff > 0 {
		eligible := make([]int, 0, len(order))
		for _, c := range order {
			if colRes[c] > 0 {
				eligible = append(eligible, c)
			}
		}
		if len(eligible) == 0 {
			return diff
		}
		n := int64(len(eligible))
		if diff >= n {
			rounds := diff / n
			for _, c := range eligible {
				if colRes[c] < rounds {
					rounds = colRes[c]
				}
			}
			for _, c := range eligible {
				row[c] += rounds
				colRes[c] -= rounds
			}
			diff -= rounds * n
			continue
		}
		for _, c := range eligible[:diff] {
			row[c]++
			colRes[c]--
		}
		return 0
	}
	return 0
}

// fillShortfall is the closed form of the unrestricted unit-by-unit cycle:
// every importer gets diff/n units and the first diff%n in order one more.
func fillShortfall(row []int64, order []int, diff int64, colRes []int64) {
	n := int64(len(order))
	base, extra := diff/n, diff%n
	for k, c := range order {
		add := base
		if int64(k) < extra {
			add++
		}
		row[c] += add
		if colRes != nil {
			colRes[c] -= add
		}
	}
}

func removeSurplus(row []int64, order []int, surplus int64, colRes []int64) {
	for surplus > 0 {
		progressed := false
		for _, c := range order {
			if row[c] == 0 {
				continue
			}
			row[c]--
			if colRes != nil {
				colRes[c]++
			}
			surplus--
			progressed = true
			if surplus == 0 {
				return
			}
		}
		if !progressed {
			return
		}
	}
}
