// Package metrics tracks upstream latency and queue activity of the sync worker.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Upstream names an external API.
type Upstream string

const (
	MTGAHelper     Upstream = "mtgahelper"
	Scryfall       Upstream = "scryfall"
	SeventeenLands Upstream = "17lands"
)

// Upstreams lists every tracked upstream.
var Upstreams = []Upstream{MTGAHelper, Scryfall, SeventeenLands}

// SyncMetrics tracks performance metrics for the synchronization worker.
type SyncMetrics struct {
	latency map[Upstream]*Histogram

	// Counters (atomic operations for thread safety)
	Requests            atomic.Uint64
	RequestErrors       atomic.Uint64
	StatisticsFetched   atomic.Uint64
	StatisticsFailed    atomic.Uint64
	RatingsUploaded     atomic.Uint64
	UploadRetries       atomic.Uint64
	UploadDiscards      atomic.Uint64
	UploadsCancelled    atomic.Uint64
	BreakerTransitions  atomic.Uint64
	statisticsQueueLen  atomic.Int64
	uploadQueueLen      atomic.Int64
	outstandingRequests atomic.Int64

	startTime time.Time
	mu        sync.RWMutex
}

// NewSyncMetrics creates a new metrics collector.
func NewSyncMetrics() *SyncMetrics {
	latency := make(map[Upstream]*Histogram, len(Upstreams))
	for _, u := range Upstreams {
		latency[u] = NewHistogram(10000)
	}
	return &SyncMetrics{
		latency:   latency,
		startTime: time.Now(),
	}
}

// RecordRequest records one upstream call and whether it failed.
func (m *SyncMetrics) RecordRequest(upstream Upstream, d time.Duration, err error) {
	if h, ok := m.latency[upstream]; ok {
		h.Record(d)
	}
	m.Requests.Add(1)
	if err != nil {
		m.RequestErrors.Add(1)
	}
}

// SetQueueDepth records the current queue lengths and in-flight request count.
func (m *SyncMetrics) SetQueueDepth(statistics, uploads, outstanding int) {
	m.statisticsQueueLen.Store(int64(statistics))
	m.uploadQueueLen.Store(int64(uploads))
	m.outstandingRequests.Store(int64(outstanding))
}

// SyncStats contains the computed statistics from metrics.
type SyncStats struct {
	Latency map[Upstream]LatencyStats `json:"latency"`

	Requests           uint64  `json:"requests"`
	RequestErrors      uint64  `json:"request_errors"`
	RequestSuccessRate float64 `json:"request_success_rate"` // percentage
	StatisticsFetched  uint64  `json:"statistics_fetched"`
	StatisticsFailed   uint64  `json:"statistics_failed"`
	RatingsUploaded    uint64  `json:"ratings_uploaded"`
	UploadRetries      uint64  `json:"upload_retries"`
	UploadDiscards     uint64  `json:"upload_discards"`
	UploadsCancelled   uint64  `json:"uploads_cancelled"`
	BreakerTransitions uint64  `json:"breaker_transitions"`

	StatisticsQueue int64 `json:"statistics_queue"`
	UploadQueue     int64 `json:"upload_queue"`
	Outstanding     int64 `json:"outstanding"`

	Uptime string `json:"uptime"`
}

// LatencyStats contains statistics for a latency histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"` // milliseconds
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// GetStats returns a snapshot of the current statistics.
func (m *SyncMetrics) GetStats() *SyncStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requests := m.Requests.Load()
	requestErrors := m.RequestErrors.Load()
	successRate := 0.0
	if requests > 0 {
		successRate = float64(requests-requestErrors) / float64(requests) * 100
	}

	latency := make(map[Upstream]LatencyStats, len(m.latency))
	for u, h := range m.latency {
		latency[u] = LatencyStats{
			Mean:  h.Mean(),
			P50:   h.Percentile(50),
			P95:   h.Percentile(95),
			Max:   h.Max(),
			Count: h.Count(),
		}
	}

	return &SyncStats{
		Latency:            latency,
		Requests:           requests,
		RequestErrors:      requestErrors,
		RequestSuccessRate: successRate,
		StatisticsFetched:  m.StatisticsFetched.Load(),
		StatisticsFailed:   m.StatisticsFailed.Load(),
		RatingsUploaded:    m.RatingsUploaded.Load(),
		UploadRetries:      m.UploadRetries.Load(),
		UploadDiscards:     m.UploadDiscards.Load(),
		UploadsCancelled:   m.UploadsCancelled.Load(),
		BreakerTransitions: m.BreakerTransitions.Load(),
		StatisticsQueue:    m.statisticsQueueLen.Load(),
		UploadQueue:        m.uploadQueueLen.Load(),
		Outstanding:        m.outstandingRequests.Load(),
		Uptime:             time.Since(m.startTime).Round(time.Second).String(),
	}
}

// Reset clears all metrics.
func (m *SyncMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.latency {
		h.Reset()
	}
	for _, c := range []*atomic.Uint64{
		&m.Requests, &m.RequestErrors, &m.StatisticsFetched, &m.StatisticsFailed,
		&m.RatingsUploaded, &m.UploadRetries, &m.UploadDiscards, &m.UploadsCancelled,
		&m.BreakerTransitions,
	} {
		c.Store(0)
	}
	m.SetQueueDepth(0, 0, 0)
	m.startTime = time.Now()
}
