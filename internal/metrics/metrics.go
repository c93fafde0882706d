package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const (
	MetricSyncTotal             = "roster_sync_total"
	MetricSyncDurationSeconds   = "roster_sync_duration_seconds"
	MetricSyncAttemptsTotal     = "roster_sync_attempts_total"
	MetricSyncRetryWaitSeconds  = "roster_sync_retry_wait_seconds"
	MetricBatchMembersTotal     = "roster_batch_members_total"
	MetricUpstreamRequestsTotal = "roster_upstream_requests_total"
	MetricSyncLogsPrunedTotal   = "roster_sync_logs_pruned_total"
)

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	syncTotal        *prometheus.CounterVec
	syncDuration     *prometheus.HistogramVec
	syncAttempts     prometheus.Counter
	retryWait        *prometheus.HistogramVec
	batchMembers     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	logsPruned       prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSyncTotal,
			Help: "Member syncs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSyncDurationSeconds,
			Help:    "Wall time of one member sync including retries",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"trigger"}),
		syncAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSyncAttemptsTotal,
			Help: "Single-pass sync attempts",
		}),
		retryWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSyncRetryWaitSeconds,
			Help:    "Waits scheduled between sync attempts",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"kind"}),
		batchMembers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBatchMembersTotal,
			Help: "Members processed by batch runs",
		}, []string{"trigger"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUpstreamRequestsTotal,
			Help: "Requests to the ranked API by endpoint and status code",
		}, []string{"endpoint", "code"}),
		logsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSyncLogsPrunedTotal,
			Help: "Audit log entries removed by retention pruning",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncTotal,
		m.syncDuration,
		m.syncAttempts,
		m.retryWait,
		m.batchMembers,
		m.upstreamRequests,
		m.logsPruned,
	)

	return m
}

func (m *Metrics) ObserveSync(trigger, outcome string, d time.Duration) {
	m.syncTotal.WithLabelValues(trigger, outcome).Inc()
	m.syncDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

func (m *Metrics) ObserveAttempt() {
	m.syncAttempts.Inc()
}

func (m *Metrics) ObserveRetryWait(kind string, d time.Duration) {
	m.retryWait.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) ObserveBatchMember(trigger string) {
	m.batchMembers.WithLabelValues(trigger).Inc()
}

// ObserveUpstream records one outbound request. A code of 0 means the
// request never produced a response.
func (m *Metrics) ObserveUpstream(endpoint string, code int) {
	m.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// UpstreamCounter exposes the request counter for one endpoint and code.
func (m *Metrics) UpstreamCounter(endpoint string, code int) prometheus.Counter {
	return m.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(code))
}

func (m *Metrics) SyncCounter(trigger, outcome string) prometheus.Counter {
	return m.syncTotal.WithLabelValues(trigger, outcome)
}

func (m *Metrics) ObservePruned(n int64) {
	m.logsPruned.Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var Module = fx.Provide(New)
