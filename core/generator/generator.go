// Package generator runs the flow allocator over every requested year of a
// pair of export and import tables and collects the results.
package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/dataset"
	"github.com/kilianp07/tradeflow/core/logger"
	"github.com/kilianp07/tradeflow/core/metrics"
	"github.com/kilianp07/tradeflow/core/model"
	coremon "github.com/kilianp07/tradeflow/core/monitoring"
	"github.com/kilianp07/tradeflow/core/runlog"
)

// Config tunes a generation run.
type Config struct {
	// Workers is the number of years allocated concurrently. Values below 2
	// process years one after the other.
	Workers int `json:"workers"`
	// FillMissing adds a zero-quantity placeholder for exporters of the
	// export table that have no flow in an allocated year.
	FillMissing bool `json:"fill_missing"`
	// Tolerance is the relative import deviation counted as a match.
	Tolerance float64 `json:"tolerance"`
	// Authority names the side whose totals must be exact after allocation.
	Authority allocation.Authority `json:"authority"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Tolerance <= 0 {
		c.Tolerance = allocation.DefaultTolerance
	}
	if c.Authority == "" {
		c.Authority = allocation.AuthorityExport
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.Tolerance < 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in [0,1), got %v", c.Tolerance)
	}
	return nil
}

// Result holds the outcome of a run. Flows are concatenated in ascending
// year order; Reports has one entry per requested year.
type Result struct {
	RunID   string
	Flows   []model.Flow
	Reports []model.YearReport
	Summary model.RunSummary
}

// Generator allocates flows year by year.
type Generator struct {
	alloc    allocation.Allocator
	strategy string
	cfg      Config
	sink     metrics.MetricsSink
	runlog   runlog.Store
	log      logger.Logger
	now      func() time.Time
	newRunID func() string
}

// New creates a Generator. A nil sink, store or logger disables the
// corresponding output.
func New(alloc allocation.Allocator, strategy string, cfg Config, sink metrics.MetricsSink, store runlog.Store, log logger.Logger) (*Generator, error) {
	if alloc == nil {
		return nil, fmt.Errorf("generator: nil allocator")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if store == nil {
		store = runlog.NopStore{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Generator{
		alloc:    alloc,
		strategy: strategy,
		cfg:      cfg,
		sink:     sink,
		runlog:   store,
		log:      log,
		now:      time.Now,
		newRunID: uuid.NewString,
	}, nil
}

// Years returns the sorted union of the year columns of both tables.
func Years(exports, imports *dataset.Table) []int {
	seen := make(map[int]struct{})
	for _, y := range exports.Years() {
		seen[y] = struct{}{}
	}
	for _, y := range imports.Years() {
		seen[y] = struct{}{}
	}
	return sortedYears(seen)
}

func sortedYears(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

type yearOutcome struct {
	flows  []model.Flow
	report model.YearReport
}

// Run allocates every year in years, or every year of either table when
// years is empty. Years that cannot be allocated are reported and skipped;
// only context cancellation aborts the run.
func (g *Generator) Run(ctx context.Context, exports, imports *dataset.Table, years []int) (*Result, error) {
	if exports == nil || imports == nil {
		return nil, fmt.Errorf("generator: nil table")
	}
	if len(years) == 0 {
		years = Years(exports, imports)
	} else {
		set := make(map[int]struct{}, len(years))
		for _, y := range years {
			set[y] = struct{}{}
		}
		years = sortedYears(set)
	}

	runID := g.newRunID()
	start := g.now()
	g.log.Infow("generation started", map[string]any{
		"run_id": runID, "years": len(years), "strategy": g.strategy, "workers": g.cfg.Workers,
	})

	outcomes := make([]yearOutcome, len(years))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, year := range years {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = g.runYear(egCtx, runID, year, exports, imports)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generation %s: %w", runID, err)
	}

	res := &Result{RunID: runID, Reports: make([]model.YearReport, 0, len(years))}
	for _, o := range outcomes {
		res.Flows = append(res.Flows, o.flows...)
		res.Reports = append(res.Reports, o.report)
		switch {
		case o.report.Status == model.StatusFailed:
			res.Summary.Failed++
		case o.report.Status.Skipped():
			res.Summary.Skipped++
		}
	}
	res.Summary.RunID = runID
	res.Summary.Years = len(years)
	res.Summary.Records = len(res.Flows)
	res.Summary.Time = g.now()
	res.Summary.Duration = res.Summary.Time.Sub(start)
	if err := metrics.RecordRun(g.sink, res.Summary); err != nil {
		g.log.Warnf("record run %s: %v", runID, err)
	}
	g.log.Infow("generation finished", map[string]any{
		"run_id": runID, "records": res.Summary.Records, "skipped": res.Summary.Skipped, "failed": res.Summary.Failed,
	})
	return res, nil
}

func (g *Generator) runYear(ctx context.Context, runID string, year int, exports, imports *dataset.Table) (out yearOutcome) {
	rep := model.YearReport{RunID: runID, Year: year, Strategy: g.strategy}
	defer func() {
		rep.Time = g.now()
		out.report = rep
		g.record(ctx, rep)
	}()

	if !exports.HasYear(year) || !imports.HasYear(year) {
		g.log.Warnf("year %d missing from %s, skipping", year, missingSide(year, exports, imports))
		rep.Status = model.StatusSkippedMissingYear
		return out
	}
	supply, err := exports.Vector(year)
	if err == nil {
		var demand model.Vector
		demand, err = imports.Vector(year)
		if err == nil {
			out.flows = g.allocate(&rep, supply, demand, exports)
			return out
		}
	}
	g.fail(&rep, err)
	return out
}

func (g *Generator) allocate(rep *model.YearReport, supply, demand model.Vector, exports *dataset.Table) []model.Flow {
	year := rep.Year
	rep.TotalSupply = supply.Total()
	rep.TotalDemand = demand.Total()
	start := time.Now()
	flows, err := g.alloc.Allocate(year, supply, demand)
	rep.Duration = time.Since(start)
	if errors.Is(err, allocation.ErrEmptyInput) {
		g.log.Warnf("year %d has no positive supply or demand, skipping", year)
		rep.Status = model.StatusSkippedEmpty
		return nil
	}
	if err != nil {
		g.fail(rep, err)
		return nil
	}

	vr := allocation.Verify(year, flows, supply, demand, g.cfg.Tolerance)
	exact := vr.Err()
	if g.cfg.Authority == allocation.AuthorityImport {
		exact = allocation.CheckImports(year, flows, demand)
	}
	if exact != nil {
		g.log.Errorf("%v", exact)
		coremon.CaptureException(exact, map[string]string{"year": strconv.Itoa(year), "module": "allocation"})
		var mm *allocation.ExportMismatchError
		if errors.As(exact, &mm) {
			rep.ExportMismatches = len(mm.Mismatches)
		}
	}
	rep.Status = model.StatusAllocated
	rep.Records = len(flows)
	rep.TotalEmitted = vr.TotalEmitted
	rep.MaxAbsDeviation = vr.MaxAbsDeviation
	rep.MaxRelDeviation = vr.MaxRelDeviation
	rep.MeanRelDeviation = vr.MeanRelDeviation
	rep.WithinTolerance = vr.WithinTolerance
	rep.Importers = len(vr.Deviations)

	if g.cfg.FillMissing {
		placeholders := FillMissing(year, flows, exports.Countries(), demand.Names())
		rep.Placeholders = len(placeholders)
		if len(placeholders) > 0 {
			flows = append(flows, placeholders...)
			model.SortFlows(flows)
		}
	}
	g.log.Infow("year allocated", map[string]any{
		"year":              year,
		"records":           rep.Records,
		"total_supply":      rep.TotalSupply,
		"total_demand":      rep.TotalDemand,
		"max_rel_deviation": rep.MaxRelDeviation,
	})
	return flows
}

func (g *Generator) fail(rep *model.YearReport, err error) {
	rep.Status = model.StatusFailed
	rep.Error = err.Error()
	g.log.Errorf("year %d failed: %v", rep.Year, err)
	coremon.CaptureException(err, map[string]string{"year": strconv.Itoa(rep.Year), "module": "generator"})
}

func (g *Generator) record(ctx context.Context, rep model.YearReport) {
	if err := g.sink.RecordYear(rep); err != nil {
		g.log.Warnf("metrics for year %d: %v", rep.Year, err)
	}
	if err := g.runlog.Append(ctx, rep); err != nil {
		g.log.Warnf("run log for year %d: %v", rep.Year, err)
	}
}

func missingSide(year int, exports, imports *dataset.Table) string {
	switch {
	case !exports.HasYear(year) && !imports.HasYear(year):
		return "both tables"
	case !exports.HasYear(year):
		return exports.Name
	default:
		return imports.Name
	}
}

// FillMissing returns one zero-quantity flow to the first importer for each
// exporter that has no flow in the year. importers must be sorted.
func FillMissing(year int, flows []model.Flow, exporters, importers []string) []model.Flow {
	if len(importers) == 0 {
		return nil
	}
	has := make(map[string]struct{}, len(flows))
	for _, f := range flows {
		has[f.Exporter] = struct{}{}
	}
	var out []model.Flow
	for _, e := range exporters {
		if _, ok := has[e]; ok {
			continue
		}
		has[e] = struct{}{}
		out = append(out, model.Flow{Exporter: e, Importer: importers[0], Year: year})
	}
	return out
}
