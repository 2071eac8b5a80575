// Package telemetry exports orchestration events as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanmeadows/langbridge/internal/chat"
	"github.com/alanmeadows/langbridge/internal/langgraph"
)

const namespace = "langbridge"

// Observer is a chat.Observer that records counters and run durations.
type Observer struct {
	registry *prometheus.Registry

	threadsCreated  prometheus.Counter
	threadFailures  prometheus.Counter
	runsStarted     prometheus.Counter
	runsFinished    *prometheus.CounterVec
	fragments       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	fragmentsPerRun prometheus.Histogram
}

var _ chat.Observer = (*Observer)(nil)

// New creates an Observer with its own registry.
func New() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		threadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_created_total",
			Help:      "Threads created on the LangGraph server.",
		}),
		threadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thread_create_failures_total",
			Help:      "Failed thread creation attempts.",
		}),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Streamed runs requested.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Streamed runs by outcome.",
		}, []string{"outcome"}),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Fragments delivered, by server-sent event name.",
		}, []string{"event"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time from run request to end of stream.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		fragmentsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fragments_per_run",
			Help:      "Fragments delivered per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	o.registry.MustRegister(
		o.threadsCreated,
		o.threadFailures,
		o.runsStarted,
		o.runsFinished,
		o.fragments,
		o.runDuration,
		o.fragmentsPerRun,
	)
	return o
}

// Registry exposes the underlying registry for tests and extra collectors.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus text format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observer) OnEvent(_ context.Context, event chat.Event) {
	switch event.Type {
	case chat.EventSessionCreated:
		o.threadsCreated.Inc()
	case chat.EventSessionCreateFailed:
		o.threadFailures.Inc()
	case chat.EventRunStarted:
		o.runsStarted.Inc()
	case chat.EventFragment:
		name := event.FragmentEvent
		if name == "" {
			name = "message"
		}
		o.fragments.WithLabelValues(name).Inc()
	case chat.EventRunFailed:
		o.runsFinished.WithLabelValues(outcome(event.Err)).Inc()
	case chat.EventRunCompleted:
		o.runsFinished.WithLabelValues("completed").Inc()
		o.runDuration.Observe(event.Duration.Seconds())
		o.fragmentsPerRun.Observe(float64(event.Fragments))
	case chat.EventRunClosed:
		o.runsFinished.WithLabelValues("closed").Inc()
		o.runDuration.Observe(event.Duration.Seconds())
		o.fragmentsPerRun.Observe(float64(event.Fragments))
	case chat.EventRunErrored:
		o.runsFinished.WithLabelValues("interrupted").Inc()
		o.runDuration.Observe(event.Duration.Seconds())
		o.fragmentsPerRun.Observe(float64(event.Fragments))
	}
}

// outcome classifies a run that never started streaming.
func outcome(err error) string {
	var terr *langgraph.TransportError
	if errors.As(err, &terr) && terr.StatusCode != 0 {
		return "rejected"
	}
	return "unreachable"
}
