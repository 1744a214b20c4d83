// Package app wires the configured components into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/wildfire/api"
	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	coremetrics "github.com/kilianp07/wildfire/core/metrics"
	coremon "github.com/kilianp07/wildfire/core/monitoring"
	"github.com/kilianp07/wildfire/core/prediction"
	"github.com/kilianp07/wildfire/core/runner"
	"github.com/kilianp07/wildfire/infra/logger"
	"github.com/kilianp07/wildfire/infra/metrics"
	"github.com/kilianp07/wildfire/infra/monitoring"
	"github.com/kilianp07/wildfire/infra/mqtt"
	"github.com/kilianp07/wildfire/infra/runstore"
	"github.com/kilianp07/wildfire/infra/snapshot"
	"github.com/kilianp07/wildfire/internal/eventbus"
)

// Service owns the runner and every long-lived collaborator.
type Service struct {
	Runner  *runner.Runner
	Tracker *metrics.RunTracker

	cfg       *config.Config
	bus       *eventbus.Bus
	audit     logging.AuditStore
	runs      runstore.Store
	mqtt      *mqtt.PahoClient
	predictor prediction.Predictor
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	audit, err := logging.Open(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	runs, err := runstore.Open(cfg.RunStore)
	if err != nil {
		closeQuietly(audit)
		return nil, fmt.Errorf("run store: %w", err)
	}
	predictor, err := prediction.New(cfg.Prediction)
	if err != nil {
		closeQuietly(audit)
		_ = runs.Close()
		return nil, fmt.Errorf("predictor: %w", err)
	}

	var client *mqtt.PahoClient
	if cfg.MQTT.Enabled() {
		if client, err = mqtt.NewPahoClient(cfg.MQTT); err != nil {
			closeQuietly(audit)
			_ = runs.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
	}

	svc := &Service{
		Tracker:   metrics.NewRunTracker(),
		cfg:       cfg,
		bus:       eventbus.NewWithBuffer(256),
		audit:     audit,
		runs:      runs,
		mqtt:      client,
		predictor: predictor,
		log:       logg,
	}
	svc.Runner = &runner.Runner{
		Resources:   cfg.Resources,
		DamageCosts: cfg.DamageCosts,
		Policy:      cfg.Dispatch.Policy,
		Log:         logger.New("dispatch"),
		Metrics:     sink,
		Bus:         svc.bus,
		Audit:       audit,
		Observers:   svc.observers,
	}
	return svc, nil
}

// observers builds the per-run observer set. File writers keep per-run state
// so a new one is created for each engine.
func (s *Service) observers() []dispatch.Observer {
	obs := []dispatch.Observer{runstore.NewRecorder(s.runs)}
	if s.cfg.Snapshot.Dir != "" {
		fw, err := snapshot.NewFileWriter(s.cfg.Snapshot)
		if err != nil {
			s.log.Errorf("snapshot writer: %v", err)
		} else {
			obs = append(obs, fw)
		}
	}
	if s.mqtt != nil {
		obs = append(obs, mqtt.NewSnapshotPublisher(s.mqtt, s.cfg.MQTT.TopicPrefix, s.cfg.Snapshot.Interval))
	}
	return obs
}

// Runs returns the run history store.
func (s *Service) Runs() runstore.Store { return s.runs }

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Log:       logger.New("api"),
		Runner:    s.Runner,
		Runs:      s.runs,
		Audit:     s.audit,
		Predictor: s.predictor,
		Threshold: s.cfg.Prediction.Threshold,
		Token:     s.cfg.API.Token,
		MaxBody:   int64(s.cfg.API.MaxBodyMB) << 20,
	})
}

// Run serves the API, the metrics endpoint and, when an intake topic is
// configured, a live MQTT incident stream. It blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.Tracker)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.mqtt != nil && s.cfg.MQTT.IntakeTopic != "" {
		in, err := s.mqtt.Incidents(ctx, s.cfg.MQTT.IntakeTopic, s.cfg.Dispatch.Window.MaxSize)
		if err != nil {
			return err
		}
		go func() {
			out, err := s.Runner.Stream(ctx, runner.Request{}, in, s.cfg.Dispatch.Window.QueueWindow())
			if err != nil {
				s.log.Errorf("stream run: %v", err)
				return
			}
			s.log.Infof("stream run %s completed: %d events", out.Result.RunID, out.Report.TotalEvents)
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.API.ReadTimeoutSeconds) * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	errs = append(errs, s.runs.Close())
	s.bus.Close()
	coremon.Flush(s.cfg.Sentry.FlushTimeout())
	return errors.Join(errs...)
}

func closeQuietly(s logging.AuditStore) {
	if s != nil {
		_ = s.Close()
	}
}
