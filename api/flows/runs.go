package flows

import (
	"net/http"
	"time"

	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/core/runlog"
)

// NewRunLogHandler exposes run log records via GET /api/runs. Requests must
// carry "Authorization: Bearer <token>" when token is non-empty.
func NewRunLogHandler(store runlog.Store, token string) http.Handler {
	return get(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := runlog.Query{
			RunID:  r.URL.Query().Get("run_id"),
			Status: model.YearStatus(r.URL.Query().Get("status")),
		}
		year, err := intParam(r, "year", 0)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		q.Year = year
		if q.Start, err = timeParam(r, "start"); err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
		if q.End, err = timeParam(r, "end"); err != nil {
			http.Error(w, "invalid end", http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		writeJSON(w, records)
	})
}

// timeParam parses an optional RFC 3339 query parameter.
func timeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
