package model

import "time"

// YearStatus describes what happened to a single year of a run.
type YearStatus string

const (
	StatusAllocated          YearStatus = "allocated"
	StatusSkippedMissingYear YearStatus = "skipped_missing_year"
	StatusSkippedEmpty       YearStatus = "skipped_empty"
	StatusFailed             YearStatus = "failed"
)

// Skipped reports whether the year produced no allocation without failing.
func (s YearStatus) Skipped() bool {
	return s == StatusSkippedMissingYear || s == StatusSkippedEmpty
}

// YearReport summarizes the allocation of one year.
type YearReport struct {
	RunID            string        `json:"run_id"`
	Year             int           `json:"year"`
	Status           YearStatus    `json:"status"`
	Strategy         string        `json:"strategy"`
	Records          int           `json:"records"`
	Placeholders     int           `json:"placeholders"`
	TotalSupply      int64         `json:"total_supply"`
	TotalDemand      int64         `json:"total_demand"`
	TotalEmitted     int64         `json:"total_emitted"`
	ExportMismatches int           `json:"export_mismatches"`
	MaxAbsDeviation  int64         `json:"max_abs_deviation"`
	MaxRelDeviation  float64       `json:"max_rel_deviation"`
	MeanRelDeviation float64       `json:"mean_rel_deviation"`
	WithinTolerance  int           `json:"within_tolerance"`
	Importers        int           `json:"importers"`
	Duration         time.Duration `json:"duration"`
	Error            string        `json:"error,omitempty"`
	Time             time.Time     `json:"time"`
}

// Imbalance is total supply minus total demand.
func (r YearReport) Imbalance() int64 {
	return r.TotalSupply - r.TotalDemand
}

// RunSummary aggregates the year reports of a run.
type RunSummary struct {
	RunID    string        `json:"run_id"`
	Years    int           `json:"years"`
	Records  int           `json:"records"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`
}
