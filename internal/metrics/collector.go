package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ratings_sync"

var (
	requestDurationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "upstream", "request_duration_milliseconds"),
		"Duration of upstream API requests in milliseconds",
		[]string{"upstream"}, nil,
	)
	queueLengthDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "length"),
		"Current number of queued requests",
		[]string{"queue"}, nil,
	)
	outstandingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "upstream", "outstanding_requests"),
		"Current number of in-flight upstream requests",
		nil, nil,
	)
)

type counterDesc struct {
	desc  *prometheus.Desc
	value func(*SyncMetrics) uint64
}

func newCounterDesc(name, help string, value func(*SyncMetrics) uint64) counterDesc {
	return counterDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: value,
	}
}

var counters = []counterDesc{
	newCounterDesc("upstream_requests_total", "Total number of upstream API requests",
		func(m *SyncMetrics) uint64 { return m.Requests.Load() }),
	newCounterDesc("upstream_request_errors_total", "Total number of failed upstream API requests",
		func(m *SyncMetrics) uint64 { return m.RequestErrors.Load() }),
	newCounterDesc("statistics_downloaded_total", "Total number of sets whose 17Lands statistics were stored",
		func(m *SyncMetrics) uint64 { return m.StatisticsFetched.Load() }),
	newCounterDesc("statistics_failed_total", "Total number of failed 17Lands set downloads",
		func(m *SyncMetrics) uint64 { return m.StatisticsFailed.Load() }),
	newCounterDesc("ratings_uploaded_total", "Total number of card ratings uploaded",
		func(m *SyncMetrics) uint64 { return m.RatingsUploaded.Load() }),
	newCounterDesc("upload_retries_total", "Total number of re-enqueued rating uploads",
		func(m *SyncMetrics) uint64 { return m.UploadRetries.Load() }),
	newCounterDesc("upload_discards_total", "Total number of upload batches discarded after repeated failures",
		func(m *SyncMetrics) uint64 { return m.UploadDiscards.Load() }),
	newCounterDesc("uploads_cancelled_total", "Total number of upload batches cancelled by the user",
		func(m *SyncMetrics) uint64 { return m.UploadsCancelled.Load() }),
	newCounterDesc("circuit_breaker_transitions_total", "Total number of MTGA Helper circuit breaker state changes",
		func(m *SyncMetrics) uint64 { return m.BreakerTransitions.Load() }),
}

// Describe implements prometheus.Collector.
func (m *SyncMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestDurationDesc
	ch <- queueLengthDesc
	ch <- outstandingDesc
	for _, c := range counters {
		ch <- c.desc
	}
}

// Collect implements prometheus.Collector. Latency is exported as a summary
// with quantiles over the histogram window.
func (m *SyncMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, u := range Upstreams {
		h := m.latency[u]
		count, sum := h.Totals()
		ch <- prometheus.MustNewConstSummary(requestDurationDesc, count, sum, map[float64]float64{
			0.5:  h.Percentile(50),
			0.95: h.Percentile(95),
			0.99: h.Percentile(99),
		}, string(u))
	}

	ch <- prometheus.MustNewConstMetric(queueLengthDesc, prometheus.GaugeValue, float64(m.statisticsQueueLen.Load()), "statistics")
	ch <- prometheus.MustNewConstMetric(queueLengthDesc, prometheus.GaugeValue, float64(m.uploadQueueLen.Load()), "upload")
	ch <- prometheus.MustNewConstMetric(outstandingDesc, prometheus.GaugeValue, float64(m.outstandingRequests.Load()))

	for _, c := range counters {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(c.value(m)))
	}
}
