package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/core/query"
)

// DefaultTopN is the ranking size when n is not given.
const DefaultTopN = 10

// Source returns the records selected by a filter.
type Source interface {
	Query(ctx context.Context, f query.Filter) ([]model.Flow, error)
}

// MemorySource serves an in-memory record set.
type MemorySource []model.Flow

// Query filters the records.
func (m MemorySource) Query(_ context.Context, f query.Filter) ([]model.Flow, error) {
	return query.Apply(m, f), nil
}

// NewMux registers every flow endpoint on a new ServeMux.
func NewMux(src Source) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/flows", NewFlowsHandler(src))
	mux.Handle("/api/top", NewTopHandler(src))
	mux.Handle("/api/links", NewLinksHandler(src))
	mux.Handle("/api/summary", NewSummaryHandler(src))
	return mux
}

// NewFlowsHandler serves GET /api/flows?year=&exporter=&importer=.
func NewFlowsHandler(src Source) http.Handler {
	return get(func(w http.ResponseWriter, r *http.Request) {
		recs, ok := load(w, r, src)
		if !ok {
			return
		}
		if recs == nil {
			recs = []model.Flow{}
		}
		writeJSON(w, recs)
	})
}

// NewTopHandler serves GET /api/top?year=&side=exporters|importers&n=.
func NewTopHandler(src Source) http.Handler {
	return get(func(w http.ResponseWriter, r *http.Request) {
		n, err := intParam(r, "n", DefaultTopN)
		if err != nil || n <= 0 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		rank := query.TopExporters
		switch side := r.URL.Query().Get("side"); side {
		case "", "exporters":
		case "importers":
			rank = query.TopImporters
		default:
			http.Error(w, fmt.Sprintf("invalid side %q", side), http.StatusBadRequest)
			return
		}
		recs, ok := load(w, r, src)
		if !ok {
			return
		}
		writeJSON(w, rank(recs, n))
	})
}

// NewLinksHandler serves GET /api/links?year=&exporter=&importer=&max_nodes=.
// The node limit is ignored when a country is selected.
func NewLinksHandler(src Source) http.Handler {
	return get(func(w http.ResponseWriter, r *http.Request) {
		maxNodes, err := intParam(r, "max_nodes", query.DefaultMaxNodes)
		if err != nil || maxNodes <= 0 {
			http.Error(w, "invalid max_nodes", http.StatusBadRequest)
			return
		}
		f, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recs, err := src.Query(r.Context(), query.Filter{Year: f.Year})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, query.FilteredLinks(recs, f, maxNodes))
	})
}

// NewSummaryHandler serves GET /api/summary?year=&exporter=&importer=.
func NewSummaryHandler(src Source) http.Handler {
	return get(func(w http.ResponseWriter, r *http.Request) {
		recs, ok := load(w, r, src)
		if !ok {
			return
		}
		writeJSON(w, query.Summarize(recs))
	})
}

func get(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

func load(w http.ResponseWriter, r *http.Request, src Source) ([]model.Flow, bool) {
	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	recs, err := src.Query(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return recs, true
}

func parseFilter(r *http.Request) (query.Filter, error) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		return query.Filter{}, fmt.Errorf("invalid year")
	}
	return query.Filter{
		Year:     year,
		Exporter: r.URL.Query().Get("exporter"),
		Importer: r.URL.Query().Get("importer"),
	}, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
