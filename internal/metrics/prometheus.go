package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exlog"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	usersCreated    prometheus.Counter
	exercisesLogged prometheus.Counter
	logSize         prometheus.Histogram
	logDuration     prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// NewPrometheus creates a recorder with its own registry, including Go
// runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Number of users registered.",
		}),
		exercisesLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exercises_logged_total",
			Help:      "Number of exercises appended to user logs.",
		}),
		logSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "log_query",
			Name:      "entries",
			Help:      "Number of entries returned per log query.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		logDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "log_query",
			Name:      "duration_seconds",
			Help:      "Time spent loading and filtering a user's log.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "user_cache",
			Name:      "lookups_total",
			Help:      "User cache lookups by result.",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Exercise events published by outcome.",
		}, []string{"status"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.usersCreated,
		r.exercisesLogged,
		r.logSize,
		r.logDuration,
		r.cacheLookups,
		r.eventsPublished,
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// IncUserCreated increments the users created counter.
func (r *PrometheusRecorder) IncUserCreated() {
	r.usersCreated.Inc()
}

// IncExerciseLogged increments the exercises logged counter.
func (r *PrometheusRecorder) IncExerciseLogged() {
	r.exercisesLogged.Inc()
}

// ObserveLogQuery records a log query's result size and duration.
func (r *PrometheusRecorder) ObserveLogQuery(size int, duration time.Duration) {
	r.logSize.Observe(float64(size))
	r.logDuration.Observe(duration.Seconds())
}

// IncUserCacheHit increments the cache hit counter.
func (r *PrometheusRecorder) IncUserCacheHit() {
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// IncUserCacheMiss increments the cache miss counter.
func (r *PrometheusRecorder) IncUserCacheMiss() {
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// IncEventPublished counts a publication attempt by outcome.
func (r *PrometheusRecorder) IncEventPublished(status string) {
	r.eventsPublished.WithLabelValues(status).Inc()
}
