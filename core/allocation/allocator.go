package allocation

import (
	"github.com/kilianp07/tradeflow/core/model"
)

// Allocator turns one year's supply and demand vectors into bilateral flows.
//
// Implementations guarantee that the flows of every exporter sum exactly to its
// supply. Importer totals match demand only when both vectors have the same
// grand total.
type Allocator interface {
	Allocate(year int, supply, demand model.Vector) ([]model.Flow, error)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(year int, supply, demand model.Vector) ([]model.Flow, error)

func (f AllocatorFunc) Allocate(year int, supply, demand model.Vector) ([]model.Flow, error) {
	return f(year, supply, demand)
}

// validate rejects negative values and drops zero entries. It returns
// ErrEmptyInput when either side has nothing left to allocate.
func validate(supply, demand model.Vector) (model.Vector, model.Vector, error) {
	for _, n := range supply.Names() {
		if q := supply[n]; q < 0 {
			return nil, nil, &InvalidQuantityError{Side: SideSupply, Country: n, Quantity: q}
		}
	}
	for _, n := range demand.Names() {
		if q := demand[n]; q < 0 {
			return nil, nil, &InvalidQuantityError{Side: SideDemand, Country: n, Quantity: q}
		}
	}
	s, d := supply.Positive(), demand.Positive()
	if len(s) == 0 || len(d) == 0 {
		return nil, nil, ErrEmptyInput
	}
	return s, d, nil
}
