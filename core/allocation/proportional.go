package allocation

import (
	"sort"

	"github.com/kilianp07/tradeflow/core/model"
)

// Proportional splits every exporter's supply across importers in proportion
// to their share of total demand, rounds down and then applies the correction
// pass. The output only depends on the inputs.
//
// Column targets come from WorkingDemand: when total supply equals total demand
// they are the demand vector itself, so both marginals match exactly. Otherwise
// the imbalance is absorbed by importers in proportion to their demand and the
// real demand vector is left untouched for reporting.
type Proportional struct{}

// NewProportional returns the default allocator.
func NewProportional() Proportional { return Proportional{} }

// Allocate implements Allocator.
func (Proportional) Allocate(year int, supply, demand model.Vector) ([]model.Flow, error) {
	s, d, err := validate(supply, demand)
	if err != nil {
		return nil, err
	}
	m := NewMatrix(s, d)
	totalDemand := d.Total()
	for r, e := range m.Exporters {
		amount := s[e]
		for c, i := range m.Importers {
			m.Cells[r][c] = mulDiv(amount, d[i], totalDemand)
		}
	}
	Correct(m, s, WorkingDemand(s.Total(), d))
	return m.Flows(year), nil
}

// WorkingDemand apportions total across the demand vector by largest
// remainder: every importer gets floor(total*d/D) and the leftover units go to
// the largest fractional parts, ties by name. The result sums to total and
// equals demand when total == demand.Total().
func WorkingDemand(total int64, demand model.Vector) model.Vector {
	out := make(model.Vector, len(demand))
	d := demand.Total()
	if d <= 0 || total <= 0 {
		for n := range demand {
			out[n] = 0
		}
		return out
	}
	type rem struct {
		name string
		frac int64
	}
	rems := make([]rem, 0, len(demand))
	var assigned int64
	for _, n := range demand.Names() {
		q, r := mulDivRem(total, demand[n], d)
		out[n] = q
		assigned += q
		rems = append(rems, rem{name: n, frac: r})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := int64(0); k < total-assigned && k < int64(len(rems)); k++ {
		out[rems[k].name]++
	}
	return out
}
