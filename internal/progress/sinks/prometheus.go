package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
)

// PrometheusSink exports enrichment progress metrics via Prometheus.
// It owns all collectors for runs started/completed/running and the
// per-record enrichment counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runRuntime    *prometheus.HistogramVec

	recordsEnriched *prometheus.CounterVec
	enrichDuration  *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookmark_enrich_runs_started_total",
			Help: "Total enrichment runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmark_enrich_runs_completed_total",
			Help: "Total enrichment runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookmark_enrich_runs_running",
			Help: "Current number of running enrichment runs.",
		}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookmark_enrich_run_runtime_seconds",
			Help:    "Wall time per completed enrichment run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),
		recordsEnriched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmark_enrich_records_total",
			Help: "Record completions partitioned by source and result.",
		}, []string{"source", "result"}),
		enrichDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookmark_enrich_record_duration_seconds",
			Help:    "Per-record enrichment duration partitioned by result.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"result"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runRuntime,
		s.recordsEnriched,
		s.enrichDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
// It is safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StageRunDone:
		s.completeRun(evt, "success")
	case progress.StageRunError:
		s.completeRun(evt, "error")
	case progress.StageEnrichDone:
		source := evt.Source
		if source == "" {
			source = "unknown"
		}
		s.recordsEnriched.WithLabelValues(source, string(evt.Result)).Inc()
		if evt.Dur > 0 {
			s.enrichDuration.WithLabelValues(string(evt.Result)).Observe(evt.Dur.Seconds())
		}
	}
}

func (s *PrometheusSink) completeRun(evt progress.Event, label string) {
	s.runsCompleted.WithLabelValues(label).Inc()
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(evt.RunID) {
		s.runsRunning.Dec()
	}
}

// Close implements the Sink interface; collectors stay registered.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// runTracker deduplicates start/complete transitions so the running
// gauge never drifts when events are replayed.
type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
