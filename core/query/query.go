// Package query filters and ranks generated flow records for reporting and
// the HTTP API.
package query

import (
	"sort"

	"github.com/kilianp07/tradeflow/core/model"
)

// DefaultMaxNodes bounds the number of exporters and importers in a link set.
const DefaultMaxNodes = 15

// Filter selects records. Zero values match everything.
type Filter struct {
	Year     int    `json:"year,omitempty"`
	Exporter string `json:"exporter,omitempty"`
	Importer string `json:"importer,omitempty"`
}

// Match reports whether f selects the record.
func (f Filter) Match(r model.Flow) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Exporter != "" && r.Exporter != f.Exporter {
		return false
	}
	if f.Importer != "" && r.Importer != f.Importer {
		return false
	}
	return true
}

// HasCountry reports whether an exporter or importer is pinned.
func (f Filter) HasCountry() bool {
	return f.Exporter != "" || f.Importer != ""
}

// Apply returns the records selected by f, preserving order.
func Apply(flows []model.Flow, f Filter) []model.Flow {
	out := make([]model.Flow, 0, len(flows))
	for _, r := range flows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Ranked is a country with its summed quantity.
type Ranked struct {
	Country  string `json:"country"`
	Quantity int64  `json:"quantity"`
}

// TopExporters sums quantities per exporter and returns the n largest,
// ties broken by name. n <= 0 returns every exporter.
func TopExporters(flows []model.Flow, n int) []Ranked {
	return rank(model.ExportTotals(flows), n)
}

// TopImporters is the importer counterpart of TopExporters.
func TopImporters(flows []model.Flow, n int) []Ranked {
	return rank(model.ImportTotals(flows), n)
}

func rank(v model.Vector, n int) []Ranked {
	out := make([]Ranked, 0, len(v))
	for c, q := range v {
		out = append(out, Ranked{Country: c, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Country < out[j].Country
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Link is an aggregated exporter to importer edge.
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Quantity int64  `json:"quantity"`
}

// Links aggregates flows into edges between the top maxNodes exporters and
// the top maxNodes importers. Edges are ordered by quantity, then source and
// target. maxNodes <= 0 uses DefaultMaxNodes.
func Links(flows []model.Flow, maxNodes int) []Link {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	exp := names(TopExporters(flows, maxNodes))
	imp := names(TopImporters(flows, maxNodes))
	return links(flows, func(r model.Flow) bool {
		_, okE := exp[r.Exporter]
		_, okI := imp[r.Importer]
		return okE && okI
	})
}

// FilteredLinks applies f and then builds links. When f pins a country every
// edge is kept; otherwise the node limit applies.
func FilteredLinks(flows []model.Flow, f Filter, maxNodes int) []Link {
	sel := Apply(flows, f)
	if f.HasCountry() {
		return links(sel, func(model.Flow) bool { return true })
	}
	return Links(sel, maxNodes)
}

func links(flows []model.Flow, keep func(model.Flow) bool) []Link {
	type key struct{ s, t string }
	sums := make(map[key]int64)
	for _, r := range flows {
		if keep(r) {
			sums[key{r.Exporter, r.Importer}] += r.Quantity
		}
	}
	out := make([]Link, 0, len(sums))
	for k, q := range sums {
		out = append(out, Link{Source: k.s, Target: k.t, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
	return out
}

func names(r []Ranked) map[string]struct{} {
	out := make(map[string]struct{}, len(r))
	for _, x := range r {
		out[x.Country] = struct{}{}
	}
	return out
}

// Summary describes a record set.
type Summary struct {
	Records   int   `json:"records"`
	Years     []int `json:"years"`
	Exporters int   `json:"exporters"`
	Importers int   `json:"importers"`
	Total     int64 `json:"total"`
}

// Summarize counts records, distinct years and countries, and the total
// quantity.
func Summarize(flows []model.Flow) Summary {
	years := make(map[int]struct{})
	exp := make(map[string]struct{})
	imp := make(map[string]struct{})
	s := Summary{Records: len(flows), Years: []int{}}
	for _, r := range flows {
		years[r.Year] = struct{}{}
		exp[r.Exporter] = struct{}{}
		imp[r.Importer] = struct{}{}
		s.Total += r.Quantity
	}
	for y := range years {
		s.Years = append(s.Years, y)
	}
	sort.Ints(s.Years)
	s.Exporters = len(exp)
	s.Importers = len(imp)
	return s
}
