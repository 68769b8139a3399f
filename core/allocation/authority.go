package allocation

import (
	"fmt"

	"github.com/kilianp07/tradeflow/core/model"
)

// Authority selects which side of the matrix is matched exactly.
type Authority string

const (
	// AuthorityExport keeps exporter totals exact. It is the default.
	AuthorityExport Authority = "export"
	// AuthorityImport keeps importer totals exact and lets exporter totals
	// absorb the imbalance.
	AuthorityImport Authority = "import"
)

// WithAuthority wraps a so that the requested side is authoritative.
func WithAuthority(a Allocator, auth Authority) (Allocator, error) {
	switch auth {
	case "", AuthorityExport:
		return a, nil
	case AuthorityImport:
		return importAuthoritative{inner: a}, nil
	default:
		return nil, fmt.Errorf("unknown authority %q", auth)
	}
}

type importAuthoritative struct {
	inner Allocator
}

// Allocate runs the inner strategy with the roles swapped and transposes the
// result back.
func (a importAuthoritative) Allocate(year int, supply, demand model.Vector) ([]model.Flow, error) {
	flows, err := a.inner.Allocate(year, demand, supply)
	if err != nil {
		return nil, swapSides(err)
	}
	for k := range flows {
		flows[k].Exporter, flows[k].Importer = flows[k].Importer, flows[k].Exporter
	}
	model.SortFlows(flows)
	return flows, nil
}

func swapSides(err error) error {
	if iq, ok := err.(*InvalidQuantityError); ok {
		swapped := *iq
		if iq.Side == SideSupply {
			swapped.Side = SideDemand
		} else {
			swapped.Side = SideSupply
		}
		return &swapped
	}
	return err
}
