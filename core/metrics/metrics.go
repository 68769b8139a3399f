package metrics

import "github.com/kilianp07/tradeflow/core/model"

// MetricsSink records the report of every processed year.
type MetricsSink interface {
	RecordYear(r model.YearReport) error
}

// RunRecorder is implemented by sinks that also track whole runs.
type RunRecorder interface {
	RecordRun(s model.RunSummary) error
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordYear(model.YearReport) error { return nil }
func (NopSink) RecordRun(model.RunSummary) error  { return nil }
