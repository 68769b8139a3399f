package metrics

import (
	"errors"

	"github.com/kilianp07/tradeflow/core/model"
)

// MultiSink fans reports out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordYear forwards the report to every sink. All sinks are tried; the
// errors are joined.
func (m *MultiSink) RecordYear(r model.YearReport) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordYear(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the summary to sinks implementing RunRecorder.
func (m *MultiSink) RecordRun(s model.RunSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rr, ok := sink.(RunRecorder); ok {
			if err := rr.RecordRun(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes sinks implementing Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
