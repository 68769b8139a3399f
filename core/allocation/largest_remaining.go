package allocation

import (
	"sort"

	"github.com/kilianp07/tradeflow/core/model"
)

// LargestRemaining is a deterministic greedy strategy. Exporters are served
// largest first; each one is split across importers by their share of the
// remaining import capacity. Whatever cannot be placed within capacity goes to
// the importer with the largest demand, so export totals always hold.
type LargestRemaining struct{}

// NewLargestRemaining returns the greedy allocator.
func NewLargestRemaining() LargestRemaining { return LargestRemaining{} }

// Allocate implements Allocator.
func (LargestRemaining) Allocate(year int, supply, demand model.Vector) ([]model.Flow, error) {
	s, d, err := validate(supply, demand)
	if err != nil {
		return nil, err
	}
	m := NewMatrix(s, d)
	remExp := make([]int64, len(m.Exporters))
	for r, e := range m.Exporters {
		remExp[r] = s[e]
	}
	capacity := make([]int64, len(m.Importers))
	for c, i := range m.Importers {
		capacity[c] = d[i]
	}

	exporters := byDescending(m.Exporters, remExp)
	for _, r := range exporters {
		var totalCap int64
		for _, q := range capacity {
			totalCap += q
		}
		if totalCap == 0 {
			break
		}
		base := remExp[r]
		for _, c := range byDescending(m.Importers, capacity) {
			if capacity[c] <= 0 || remExp[r] == 0 {
				continue
			}
			share := min(mulDiv(base, capacity[c], totalCap), capacity[c], remExp[r])
			m.Cells[r][c] += share
			capacity[c] -= share
			remExp[r] -= share
		}
	}

	// Leftovers first go wherever capacity remains, then overflow.
	overflow := largestImporter(m.Importers, d)
	for _, r := range exporters {
		for _, c := range byDescending(m.Importers, capacity) {
			if remExp[r] == 0 {
				break
			}
			q := min(remExp[r], capacity[c])
			if q <= 0 {
				continue
			}
			m.Cells[r][c] += q
			capacity[c] -= q
			remExp[r] -= q
		}
		if remExp[r] > 0 {
			m.Cells[r][overflow] += remExp[r]
			remExp[r] = 0
		}
	}
	Correct(m, s, nil)
	return m.Flows(year), nil
}

// byDescending returns indexes of names ordered by descending value, ties by
// name.
func byDescending(names []string, values []int64) []int {
	idx := make([]int, len(names))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := values[idx[a]], values[idx[b]]
		if va != vb {
			return va > vb
		}
		return names[idx[a]] < names[idx[b]]
	})
	return idx
}

func largestImporter(importers []string, demand model.Vector) int {
	best := 0
	for c, i := range importers {
		if demand[i] > demand[importers[best]] {
			best = c
		}
	}
	return best
}
