package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/SonJH7/status-allocation-berths/core/metrics"
)

// PromSink records schedule operations in Prometheus metrics.
type PromSink struct {
	edits   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPromSink registers schedule metrics on the default Prometheus registerer.
// The metrics server is started separately on cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one; already-registered collectors are
// reused.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_edits_total",
		Help: "Total number of schedule operations by outcome",
	}, []string{"op", "outcome", "reason"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_commit_latency_seconds",
		Help:    "Time spent from proposal receipt to commit or rejection",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	if err := reg.Register(edits); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			edits = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{edits: edits, latency: latency}, nil
}

// RecordEdit implements coremetrics.EditSink.
func (s *PromSink) RecordEdit(ev coremetrics.EditEvent) error {
	s.edits.WithLabelValues(ev.Op, ev.Outcome, ev.Reason).Inc()
	s.latency.WithLabelValues(ev.Op, ev.Outcome).Observe(ev.Latency.Seconds())
	return nil
}
