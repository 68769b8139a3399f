package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/tradeflow/core/metrics"
	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/infra/logger"
)

// InfluxSink writes year reports to an InfluxDB instance.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// yearPoint builds the allocation_year point for a report.
func yearPoint(r model.YearReport) *write.Point {
	return write.NewPointWithMeasurement("allocation_year").
		AddTag("run_id", r.RunID).
		AddTag("year", strconv.Itoa(r.Year)).
		AddTag("status", string(r.Status)).
		AddTag("strategy", r.Strategy).
		AddField("records", r.Records).
		AddField("total_supply", r.TotalSupply).
		AddField("total_demand", r.TotalDemand).
		AddField("total_emitted", r.TotalEmitted).
		AddField("imbalance", r.Imbalance()).
		AddField("export_mismatches", r.ExportMismatches).
		AddField("max_abs_deviation", r.MaxAbsDeviation).
		AddField("max_rel_deviation", round3(r.MaxRelDeviation)).
		AddField("mean_rel_deviation", round3(r.MeanRelDeviation)).
		AddField("duration_ms", r.Duration.Milliseconds()).
		SetTime(r.Time)
}

// RecordYear writes one allocation_year point.
func (s *InfluxSink) RecordYear(r model.YearReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, yearPoint(r))
}

// RecordRun writes one allocation_run point.
func (s *InfluxSink) RecordRun(sum model.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("allocation_run").
		AddTag("run_id", sum.RunID).
		AddField("years", sum.Years).
		AddField("records", sum.Records).
		AddField("skipped", sum.Skipped).
		AddField("failed", sum.Failed).
		AddField("duration_ms", sum.Duration.Milliseconds()).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
