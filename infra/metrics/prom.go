package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/tradeflow/core/metrics"
	"github.com/kilianp07/tradeflow/core/model"
)

// PromSink exposes allocation statistics as Prometheus metrics.
type PromSink struct {
	flows     *prometheus.CounterVec
	years     *prometheus.CounterVec
	maxRelDev *prometheus.GaugeVec
	imbalance *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	runs      prometheus.Counter
}

// NewPromSink registers the allocation metrics on the default registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	flows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradeflow_flows_generated_total",
		Help: "Number of bilateral flow records generated",
	}, []string{"strategy"})
	years := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradeflow_years_total",
		Help: "Processed years by outcome",
	}, []string{"status"})
	maxRelDev := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tradeflow_import_max_relative_deviation",
		Help: "Largest relative gap between emitted imports and demand",
	}, []string{"year"})
	imbalance := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tradeflow_supply_demand_imbalance",
		Help: "Total supply minus total demand",
	}, []string{"year"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradeflow_allocation_duration_seconds",
		Help:    "Time spent allocating one year",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tradeflow_runs_total",
		Help: "Completed generation runs",
	})

	var err error
	if flows, err = register(reg, flows); err != nil {
		return nil, err
	}
	if years, err = register(reg, years); err != nil {
		return nil, err
	}
	if maxRelDev, err = register(reg, maxRelDev); err != nil {
		return nil, err
	}
	if imbalance, err = register(reg, imbalance); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{flows: flows, years: years, maxRelDev: maxRelDev, imbalance: imbalance, duration: duration, runs: runs}, nil
}

// register returns the already registered collector when c was registered
// by an earlier sink.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordYear updates counters and per-year gauges.
func (s *PromSink) RecordYear(r model.YearReport) error {
	s.years.WithLabelValues(string(r.Status)).Inc()
	if r.Status != model.StatusAllocated {
		return nil
	}
	year := strconv.Itoa(r.Year)
	s.flows.WithLabelValues(r.Strategy).Add(float64(r.Records))
	s.maxRelDev.WithLabelValues(year).Set(r.MaxRelDeviation)
	s.imbalance.WithLabelValues(year).Set(float64(r.Imbalance()))
	s.duration.WithLabelValues(r.Strategy).Observe(r.Duration.Seconds())
	return nil
}

// RecordRun counts completed runs.
func (s *PromSink) RecordRun(model.RunSummary) error {
	s.runs.Inc()
	return nil
}
