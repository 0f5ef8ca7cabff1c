// Package metrics keeps pipeline counters for the health endpoint and
// mirrors them into Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "haulnews"

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched      int64
	SourceFailures      int64
	CandidatesExtracted int64
	ArticlesRejected    int64
	DuplicatesFiltered  int64
	ArticlesSaved       int64
	Rewrites            int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// Registry holds the Prometheus series served by Handler.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	sourcesFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sources_fetched_total",
		Help:      "Sources fetched successfully",
	})
	sourceFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Sources that failed to fetch or extract",
	}, []string{"source"})
	candidatesExtracted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_extracted_total",
		Help:      "Raw candidates pulled from source pages",
	})
	articlesRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_rejected_total",
		Help:      "Candidates rejected by validation",
	}, []string{"reason"})
	duplicatesFiltered = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_filtered_total",
		Help:      "Articles dropped as duplicates",
	})
	articlesSaved = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_saved_total",
		Help:      "Articles written to the archive",
	})
	rewrites = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rewrites_total",
		Help:      "Rewrite requests by outcome",
	}, []string{"result"})
	runDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Duration of a full scrape run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncSourceFetched() {
	sourcesFetched.Inc()
	Global.mu.Lock()
	Global.SourcesFetched++
	Global.mu.Unlock()
}

func IncSourceFailure(source string) {
	sourceFailures.WithLabelValues(source).Inc()
	Global.mu.Lock()
	Global.SourceFailures++
	Global.mu.Unlock()
}

func AddCandidates(n int) {
	candidatesExtracted.Add(float64(n))
	Global.mu.Lock()
	Global.CandidatesExtracted += int64(n)
	Global.mu.Unlock()
}

func IncRejected(reason string) {
	articlesRejected.WithLabelValues(reason).Inc()
	Global.mu.Lock()
	Global.ArticlesRejected++
	Global.mu.Unlock()
}

func AddDuplicates(n int) {
	if n <= 0 {
		return
	}
	duplicatesFiltered.Add(float64(n))
	Global.mu.Lock()
	Global.DuplicatesFiltered += int64(n)
	Global.mu.Unlock()
}

func AddSaved(n int) {
	articlesSaved.Add(float64(n))
	Global.mu.Lock()
	Global.ArticlesSaved += int64(n)
	Global.mu.Unlock()
}

func IncRewrite(result string) {
	rewrites.WithLabelValues(result).Inc()
	Global.mu.Lock()
	Global.Rewrites++
	Global.mu.Unlock()
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	runDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++
	m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":            m.SourcesFetched,
		"source_failures":            m.SourceFailures,
		"candidates_extracted":       m.CandidatesExtracted,
		"articles_rejected":          m.ArticlesRejected,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"articles_saved":             m.ArticlesSaved,
		"rewrites":                   m.Rewrites,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
