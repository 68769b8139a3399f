package allocation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/tradeflow/core/model"
)

// DefaultTolerance is the relative import deviation still counted as a match.
const DefaultTolerance = 0.05

// Deviation compares an importer's emitted total with its demand.
type Deviation struct {
	Importer string  `json:"importer"`
	Demand   int64   `json:"demand"`
	Emitted  int64   `json:"emitted"`
	Absolute int64   `json:"absolute"`
	Relative float64 `json:"relative"`
}

// Report summarizes how well one year's flows honour both marginals.
type Report struct {
	Year             int                 `json:"year"`
	TotalSupply      int64               `json:"total_supply"`
	TotalDemand      int64               `json:"total_demand"`
	TotalEmitted     int64               `json:"total_emitted"`
	Records          int                 `json:"records"`
	Balanced         bool                `json:"balanced"`
	ExportMismatches map[string]Mismatch `json:"export_mismatches,omitempty"`
	Deviations       []Deviation         `json:"deviations"`
	MaxAbsDeviation  int64               `json:"max_abs_deviation"`
	MaxRelDeviation  float64             `json:"max_rel_deviation"`
	MeanRelDeviation float64             `json:"mean_rel_deviation"`
	WithinTolerance  int                 `json:"within_tolerance"`
	Tolerance        float64             `json:"tolerance"`
}

// Verify checks flows of a single year against supply and demand. Only
// positive vector entries are considered. Export mismatches indicate an
// allocator bug; import deviations are expected whenever the year is
// imbalanced.
func Verify(year int, flows []model.Flow, supply, demand model.Vector, tolerance float64) Report {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	s, d := supply.Positive(), demand.Positive()
	rep := Report{
		Year:        year,
		TotalSupply: s.Total(),
		TotalDemand: d.Total(),
		Records:     len(flows),
		Tolerance:   tolerance,
	}
	rep.Balanced = rep.TotalSupply == rep.TotalDemand

	exported := model.ExportTotals(flows)
	imported := model.ImportTotals(flows)
	for _, q := range exported {
		rep.TotalEmitted += q
	}
	for _, e := range s.Names() {
		if exported[e] != s[e] {
			if rep.ExportMismatches == nil {
				rep.ExportMismatches = make(map[string]Mismatch)
			}
			rep.ExportMismatches[e] = Mismatch{Expected: s[e], Actual: exported[e]}
		}
	}

	rel := make([]float64, 0, len(d))
	for _, i := range d.Names() {
		dev := Deviation{Importer: i, Demand: d[i], Emitted: imported[i]}
		dev.Absolute = dev.Emitted - dev.Demand
		dev.Relative = float64(dev.Absolute) / float64(dev.Demand)
		rep.Deviations = append(rep.Deviations, dev)
		rel = append(rel, math.Abs(dev.Relative))
		if abs64(dev.Absolute) > rep.MaxAbsDeviation {
			rep.MaxAbsDeviation = abs64(dev.Absolute)
		}
		if math.Abs(dev.Relative) < tolerance {
			rep.WithinTolerance++
		}
	}
	if len(rel) > 0 {
		rep.MaxRelDeviation = floats.Max(rel)
		rep.MeanRelDeviation = stat.Mean(rel, nil)
	}
	return rep
}

// Err returns an ExportMismatchError when the report holds export mismatches.
func (r Report) Err() error {
	if len(r.ExportMismatches) == 0 {
		return nil
	}
	return &ExportMismatchError{Year: r.Year, Mismatches: r.ExportMismatches}
}

// CheckExports verifies the primary invariant only: every exporter's flows sum
// to its supply.
func CheckExports(year int, flows []model.Flow, supply model.Vector) error {
	exported := model.ExportTotals(flows)
	var mm map[string]Mismatch
	for e, q := range supply.Positive() {
		if exported[e] != q {
			if mm == nil {
				mm = make(map[string]Mismatch)
			}
			mm[e] = Mismatch{Expected: q, Actual: exported[e]}
		}
	}
	if mm != nil {
		return &ExportMismatchError{Year: year, Mismatches: mm}
	}
	return nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// CheckImports is the importer counterpart of CheckExports, used when import
// totals are authoritative.
func CheckImports(year int, flows []model.Flow, demand model.Vector) error {
	swapped := make([]model.Flow, len(flows))
	for k, f := range flows {
		swapped[k] = model.Flow{Exporter: f.Importer, Importer: f.Exporter, Year: f.Year, Quantity: f.Quantity}
	}
	return CheckExports(year, swapped, demand)
}
