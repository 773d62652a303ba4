package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apischedule "github.com/SonJH7/status-allocation-berths/api/schedule"
	"github.com/SonJH7/status-allocation-berths/config"
	coremetrics "github.com/SonJH7/status-allocation-berths/core/metrics"
	"github.com/SonJH7/status-allocation-berths/core/schedule"
	"github.com/SonJH7/status-allocation-berths/infra/logger"
	"github.com/SonJH7/status-allocation-berths/infra/metrics"
	"github.com/SonJH7/status-allocation-berths/infra/mqtt"
	"github.com/SonJH7/status-allocation-berths/infra/store"
	"github.com/SonJH7/status-allocation-berths/ingest"
	"github.com/SonJH7/status-allocation-berths/internal/eventbus"
)

// Service wires the schedule engine, store, ingest feed and API together.
type Service struct {
	Manager *schedule.VersionManager

	store       schedule.Store
	adapter     *ingest.Adapter
	subscriber  mqtt.Subscriber
	bus         *eventbus.Bus
	log         logger.Logger
	apiAddr     string
	promEnabled bool
	promPort    string
	feedTopic   string
}

// OpenStore creates the configured store backend.
func OpenStore(cfg config.StoreConfig) (schedule.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %s", cfg.Backend)
	}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	st, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []coremetrics.EditSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics, logger.New("influx-sink")))
	}
	var sink coremetrics.EditSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	manager, err := schedule.NewVersionManager(st, cfg.Schedule, logger.New("schedule"), sink, bus)
	if err != nil {
		return nil, fmt.Errorf("version manager: %w", err)
	}

	adapter, err := ingest.NewAdapter(manager, nil, logger.New("ingest"))
	if err != nil {
		return nil, fmt.Errorf("ingest adapter: %w", err)
	}

	svc := &Service{
		Manager:     manager,
		store:       st,
		adapter:     adapter,
		bus:         bus,
		log:         logg,
		apiAddr:     cfg.API.Addr,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if cfg.Ingest.MQTT.Enabled {
		sub, err := mqtt.NewPahoSubscriber(cfg.Ingest.MQTT, logger.New("feed"))
		if err != nil {
			return nil, fmt.Errorf("feed subscriber: %w", err)
		}
		svc.subscriber = sub
		svc.feedTopic = cfg.Ingest.MQTT.Topic
	}
	return svc, nil
}

// Run starts the API and feed and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.subscriber != nil {
		if err := s.subscriber.Subscribe(s.feedTopic, s.adapter.HandleFeedMessage); err != nil {
			return fmt.Errorf("subscribe feed: %w", err)
		}
		s.log.Infof("ingest feed subscribed on %s", s.feedTopic)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.ServeMetrics(ctx, s.promPort, logger.New("metrics")); err != nil {
				s.log.Errorf("metrics server: %v", err)
			}
		}()
	}

	events := s.bus.Subscribe()
	go func() {
		for ev := range events {
			switch e := ev.(type) {
			case schedule.VersionCommitted:
				s.log.Debugw("version committed", map[string]any{
					"version_id": e.Version.ID,
					"source":     string(e.Version.Source),
					"changes":    len(e.Version.Diff),
				})
			case schedule.EditRejected:
				s.log.Debugw("edit rejected", map[string]any{
					"assignment_id": e.Proposal.AssignmentID,
					"reason":        string(e.Reason),
				})
			}
		}
	}()

	srv := &http.Server{
		Addr:    s.apiAddr,
		Handler: apischedule.NewHandler(s.Manager, logger.New("api")),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("schedule API listening on %s", s.apiAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.subscriber != nil {
		if err := s.subscriber.Close(); err != nil {
			s.log.Errorf("feed close: %v", err)
		}
	}
	s.bus.Close()
	return s.store.Close()
}
