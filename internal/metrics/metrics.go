// Package metrics exports roster and membership counters in Prometheus
// format.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crcportal/api/internal/membership"
)

const namespace = "crc"

// Recorder implements membership.Observer and owns its own registry so tests
// and multiple servers in one process do not collide.
type Recorder struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	conflicts   prometheus.Counter
	duration    prometheus.Histogram
	syncs       *prometheus.CounterVec
	students    prometheus.Gauge
	requests    *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// New creates a recorder with process and Go runtime collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "transitions_total",
			Help:      "Membership mutation state transitions by target state.",
		}, []string{"state"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "resolutions_total",
			Help:      "Membership mutations by how they resolved.",
		}, []string{"resolution"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "conflicts_total",
			Help:      "Students reported as already belonging to another class.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "mutation_duration_seconds",
			Help:      "Time from conflict check to resolution.",
			Buckets:   prometheus.DefBuckets,
		}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "syncs_total",
			Help:      "Roster reloads from the database by result.",
		}, []string{"result"}),
		students: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "students",
			Help:      "Students in the in-process roster after the last sync.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		started: make(map[string]time.Time),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.transitions,
		r.resolutions,
		r.conflicts,
		r.duration,
		r.syncs,
		r.students,
		r.requests,
	)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware counts requests by method and status code.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(r.requests, next)
}

// OnTransition implements membership.Observer.
func (r *Recorder) OnTransition(t membership.Transition) {
	r.transitions.WithLabelValues(t.To.String()).Inc()

	switch t.To {
	case membership.StateConflictCheck:
		r.mu.Lock()
		r.started[t.MutationID] = t.At
		r.mu.Unlock()
	case membership.StateAwaitingResolution:
		r.resolutions.WithLabelValues(string(membership.ResolutionConflicted)).Inc()
		var cerr *membership.ConflictError
		if errors.As(t.Err, &cerr) {
			r.conflicts.Add(float64(len(cerr.Conflicts)))
		}
	case membership.StateCommitted:
		r.resolutions.WithLabelValues(string(membership.ResolutionCommitted)).Inc()
	case membership.StateRollingBack:
		r.resolutions.WithLabelValues(string(membership.ResolutionRolledBack)).Inc()
	case membership.StateIdle:
		r.mu.Lock()
		start, ok := r.started[t.MutationID]
		delete(r.started, t.MutationID)
		r.mu.Unlock()
		if ok {
			r.duration.Observe(t.At.Sub(start).Seconds())
		}
	}
}

// ObserveSync records a roster reload.
func (r *Recorder) ObserveSync(students int, err error) {
	if err != nil {
		r.syncs.WithLabelValues("error").Inc()
		return
	}
	r.syncs.WithLabelValues("ok").Inc()
	r.students.Set(float64(students))
}
