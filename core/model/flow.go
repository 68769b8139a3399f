package model

import "sort"

// MissingValue is the sentinel the source tables use for "no data". It must be
// treated as absent, never as zero.
const MissingValue int64 = -2147483648

// Flow is a single bilateral trade record for one year.
type Flow struct {
	Exporter string `json:"exporter"`
	Importer string `json:"importer"`
	Year     int    `json:"year"`
	Quantity int64  `json:"quantity"`
}

// SortFlows orders flows by year, exporter and importer.
func SortFlows(flows []Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		a, b := flows[i], flows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Exporter != b.Exporter {
			return a.Exporter < b.Exporter
		}
		return a.Importer < b.Importer
	})
}

// ExportTotals sums quantities per exporter.
func ExportTotals(flows []Flow) Vector {
	out := make(Vector)
	for _, f := range flows {
		out[f.Exporter] += f.Quantity
	}
	return out
}

// ImportTotals sums quantities per importer.
func ImportTotals(flows []Flow) Vector {
	out := make(Vector)
	for _, f := range flows {
		out[f.Importer] += f.Quantity
	}
	return out
}
