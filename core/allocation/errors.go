package allocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyInput is returned when the supply or the demand vector holds no
// positive entry. Callers skip the year.
var ErrEmptyInput = errors.New("empty supply or demand")

// Side identifies which vector a value belongs to.
type Side string

const (
	SideSupply Side = "supply"
	SideDemand Side = "demand"
)

// InvalidQuantityError reports a negative quantity in an input vector. It is
// fatal for the year being allocated only.
type InvalidQuantityError struct {
	Side     Side
	Country  string
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid %s quantity %d for %q", e.Side, e.Quantity, e.Country)
}

// Mismatch is the difference between an expected marginal and the emitted one.
type Mismatch struct {
	Expected int64
	Actual   int64
}

// ExportMismatchError reports exporters whose emitted total differs from their
// supply. It always denotes an allocator bug.
type ExportMismatchError struct {
	Year       int
	Mismatches map[string]Mismatch
}

func (e *ExportMismatchError) Error() string {
	names := make([]string, 0, len(e.Mismatches))
	for n := range e.Mismatches {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		m := e.Mismatches[n]
		parts = append(parts, fmt.Sprintf("%s: %d vs %d", n, m.Actual, m.Expected))
	}
	return fmt.Sprintf("year %d: export totals not met (%s)", e.Year, strings.Join(parts, "; "))
}
