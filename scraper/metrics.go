package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for catalog runs.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ItemsScrapedTotal *prometheus.CounterVec
	ItemsFailedTotal  *prometheus.CounterVec
	URLsDiscovered    *prometheus.CounterVec
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total HTTP requests issued by the catalog scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "HTTP request latency for catalog requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsScraped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_items_scraped_total",
			Help: "Detail pages parsed into a record.",
		},
		[]string{"source"},
	)
	itemsFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_items_failed_total",
			Help: "Detail pages skipped after an error.",
		},
		[]string{"source", "error_type"},
	)
	discovered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_urls_discovered_total",
			Help: "Item URLs found on listing pages.",
		},
		[]string{"source"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_retries_total",
			Help: "Total number of retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, itemsScraped, itemsFailed, discovered, retries, errorsTotal)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ItemsScrapedTotal: itemsScraped,
		ItemsFailedTotal:  itemsFailed,
		URLsDiscovered:    discovered,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncItems increments the items scraped counter for a source.
func (m *Metrics) IncItems(source string) {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.WithLabelValues(source).Inc()
}

// IncItemFailure counts a skipped item.
func (m *Metrics) IncItemFailure(source, errorType string) {
	if m == nil {
		return
	}
	m.ItemsFailedTotal.WithLabelValues(source, errorType).Inc()
}

// AddDiscovered records how many item URLs a source listed.
func (m *Metrics) AddDiscovered(source string, n int) {
	if m == nil {
		return
	}
	m.URLsDiscovered.WithLabelValues(source).Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
