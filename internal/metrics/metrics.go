// Package metrics exposes Prometheus collectors for the analysis and indexing
// pipeline, plus a rolling in-process snapshot for the status endpoints.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Collector owns a private registry so several services can run in one
// process (and in tests) without colliding on the default registry.
type Collector struct {
	registry *prometheus.Registry

	analyzedTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
	indexedTotal     *prometheus.CounterVec

	stats *Stats
}

// New registers the collectors under the docmeta namespace.
func New(service string) *Collector {
	registry := prometheus.NewRegistry()

	analyzedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docmeta",
			Subsystem:   "analysis",
			Name:        "documents_analyzed_total",
			Help:        "Total analyzed documents by status.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "docmeta",
			Subsystem:   "analysis",
			Name:        "duration_seconds",
			Help:        "Document analysis duration in seconds by status.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)
	analysisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "docmeta",
			Subsystem:   "analysis",
			Name:        "in_flight",
			Help:        "Number of documents currently being analyzed.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	indexedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docmeta",
			Subsystem:   "index",
			Name:        "documents_indexed_total",
			Help:        "Total metadata records written to the store by status.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"status"},
	)

	registry.MustRegister(analyzedTotal, analysisDuration, analysisInFlight, indexedTotal)

	return &Collector{
		registry:         registry,
		analyzedTotal:    analyzedTotal,
		analysisDuration: analysisDuration,
		analysisInFlight: analysisInFlight,
		indexedTotal:     indexedTotal,
		stats:            NewStats(),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Stats returns the rolling snapshot counters.
func (c *Collector) Stats() *Stats { return c.stats }

// StartAnalysis marks one document in flight.
func (c *Collector) StartAnalysis() {
	c.analysisInFlight.Inc()
}

// FinishAnalysis records the outcome of one analysis started with
// StartAnalysis. language is only counted on success.
func (c *Collector) FinishAnalysis(duration time.Duration, language string, err error) {
	c.analysisInFlight.Dec()

	status := statusOf(err)
	c.analyzedTotal.WithLabelValues(status).Inc()
	c.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())

	if err != nil {
		c.stats.RecordError()
		return
	}
	c.stats.RecordProcessed(duration, language)
}

// RecordIndexed records one store write.
func (c *Collector) RecordIndexed(err error) {
	c.indexedTotal.WithLabelValues(statusOf(err)).Inc()
	if err != nil {
		c.stats.RecordError()
	}
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Stats holds rolling counters and an exponential moving average of
// processing time.
type Stats struct {
	mu sync.RWMutex

	processedCount        int64
	errorCount            int64
	startTime             time.Time
	lastProcessedAt       time.Time
	averageProcessingTime float64 // milliseconds
	totalProcessingTime   time.Duration
	documentsByLanguage   map[string]int64

	now func() time.Time
}

// NewStats starts the uptime clock.
func NewStats() *Stats {
	return &Stats{
		startTime:           time.Now(),
		documentsByLanguage: make(map[string]int64),
		now:                 time.Now,
	}
}

// RecordProcessed counts a successful document.
func (s *Stats) RecordProcessed(processingTime time.Duration, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processedCount++
	s.lastProcessedAt = s.now()
	s.totalProcessingTime += processingTime
	if language != "" {
		s.documentsByLanguage[language]++
	}

	// Exponential moving average (alpha = 0.1).
	ms := float64(processingTime.Nanoseconds()) / 1e6
	if s.averageProcessingTime == 0 {
		s.averageProcessingTime = ms
	} else {
		s.averageProcessingTime = 0.9*s.averageProcessingTime + 0.1*ms
	}
}

// RecordError counts a failed document.
func (s *Stats) RecordError() {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()
}

// ProcessedCount returns the number of successful documents.
func (s *Stats) ProcessedCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processedCount
}

// Uptime is the time since the stats were created.
func (s *Stats) Uptime() time.Duration {
	return s.now().Sub(s.startTime)
}

// Snapshot returns a JSON-safe view of the counters.
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := s.now().Sub(s.startTime)
	var throughput float64
	if sec := uptime.Seconds(); sec > 0 {
		throughput = float64(s.processedCount) / sec
	}
	var errRate float64
	if total := s.processedCount + s.errorCount; total > 0 {
		errRate = float64(s.errorCount) / float64(total)
	}

	byLanguage := make(map[string]int64, len(s.documentsByLanguage))
	for k, v := range s.documentsByLanguage {
		byLanguage[k] = v
	}

	return map[string]interface{}{
		"processed_count":        s.processedCount,
		"error_count":            s.errorCount,
		"start_time":             s.startTime,
		"last_processed_at":      s.lastProcessedAt,
		"avg_processing_time_ms": s.averageProcessingTime,
		"total_processing_time":  s.totalProcessingTime.String(),
		"uptime_seconds":         uptime.Seconds(),
		"throughput_per_second":  throughput,
		"error_rate":             errRate,
		"documents_by_language":  byLanguage,
	}
}
