package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/tradeflow/api/flows"
	"github.com/kilianp07/tradeflow/config"
	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/dataset"
	"github.com/kilianp07/tradeflow/core/generator"
	coremetrics "github.com/kilianp07/tradeflow/core/metrics"
	coremon "github.com/kilianp07/tradeflow/core/monitoring"
	"github.com/kilianp07/tradeflow/core/runlog"
	"github.com/kilianp07/tradeflow/infra/blob"
	"github.com/kilianp07/tradeflow/infra/flowstore"
	"github.com/kilianp07/tradeflow/infra/logger"
	"github.com/kilianp07/tradeflow/infra/metrics"
	"github.com/kilianp07/tradeflow/infra/monitoring"
	"github.com/kilianp07/tradeflow/pkg/export"
)

// Service wires the generator to its configured inputs and outputs.
type Service struct {
	cfg      *config.Config
	gen      *generator.Generator
	sink     coremetrics.MetricsSink
	runlog   runlog.Store
	store    *flowstore.Store
	uploader *blob.Uploader
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	svc := &Service{cfg: cfg, log: logg}
	if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if svc.runlog, err = runlog.New(cfg.RunLog); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("run log: %w", err)
	}
	alloc, err := allocation.New(cfg.Allocation)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.gen, err = generator.New(alloc, cfg.Allocation.Strategy.Type, cfg.Generator, svc.sink, svc.runlog, logger.New("generator"))
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	if cfg.Store.Enabled() {
		if svc.store, err = flowstore.Open(ctx, cfg.Store); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("flow store: %w", err)
		}
	}
	if cfg.Output.S3.Enabled() {
		if svc.uploader, err = blob.New(ctx, cfg.Output.S3); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("s3: %w", err)
		}
	}
	return svc, nil
}

// Generate loads the source tables, allocates every selected year and
// writes the records to the configured outputs.
func (s *Service) Generate(ctx context.Context) (*generator.Result, error) {
	exports, err := dataset.Load(s.cfg.Sources.Exports)
	if err != nil {
		return nil, fmt.Errorf("load exports: %w", err)
	}
	imports, err := dataset.Load(s.cfg.Sources.Imports)
	if err != nil {
		return nil, fmt.Errorf("load imports: %w", err)
	}
	years := s.cfg.Years.Resolve(generator.Years(exports, imports))
	if len(years) == 0 {
		return nil, fmt.Errorf("no year selected")
	}
	res, err := s.gen.Run(ctx, exports, imports, years)
	if err != nil {
		return nil, err
	}
	if err := export.WriteFile(s.cfg.Output.Path, s.cfg.Output.Format, res.Flows); err != nil {
		return nil, fmt.Errorf("write %s: %w", s.cfg.Output.Path, err)
	}
	s.log.Infof("wrote %d records to %s", len(res.Flows), s.cfg.Output.Path)
	if s.store != nil {
		if err := s.store.Save(ctx, res.RunID, res.Flows); err != nil {
			return nil, fmt.Errorf("save run %s: %w", res.RunID, err)
		}
	}
	if s.uploader != nil {
		loc, err := s.uploader.UploadFile(ctx, res.RunID, s.cfg.Output.Path)
		if err != nil {
			coremon.CaptureException(err, map[string]string{"module": "s3", "run_id": res.RunID})
			return nil, err
		}
		s.log.Infof("uploaded %s", loc)
	}
	return res, nil
}

// Source returns the record set served by the API: the file at path when
// given, otherwise the latest stored run, otherwise the configured output
// file.
func (s *Service) Source(path string) (flows.Source, error) {
	if path == "" && s.store != nil {
		return s.store, nil
	}
	if path == "" {
		path = s.cfg.Output.Path
	}
	recs, err := export.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return flows.MemorySource(recs), nil
}

// Handler returns the HTTP API over src, including /api/runs and /metrics.
func (s *Service) Handler(src flows.Source) http.Handler {
	mux := flows.NewMux(src)
	mux.Handle("/api/runs", flows.NewRunLogHandler(s.runlog, s.cfg.Server.Token))
	if s.cfg.Server.MetricsAddr == "" {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

// Serve runs the HTTP API until ctx is cancelled.
func (s *Service) Serve(ctx context.Context, src flows.Source) error {
	if addr := s.cfg.Server.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.Handler(src), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving flows API on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.sink != nil {
		errs = append(errs, coremetrics.Close(s.sink))
	}
	if s.runlog != nil {
		errs = append(errs, s.runlog.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
