package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Window outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeHTTPError  = "http_error"
	OutcomeUnexpected = "unexpected_error"
)

// ScanMetrics holds the scanner's collectors
type ScanMetrics struct {
	Windows        *prometheus.CounterVec
	Offers         prometheus.Counter
	Records        prometheus.Gauge
	SearchDuration prometheus.Histogram
	LastSuccess    prometheus.Gauge
}

// NewScanMetrics registers the scanner collectors on reg
func NewScanMetrics(namespace string, reg prometheus.Registerer) *ScanMetrics {
	factory := promauto.With(reg)
	return &ScanMetrics{
		Windows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_windows_total",
			Help:      "Weekend windows processed, by outcome",
		}, []string{"outcome"}),
		Offers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_offers_received_total",
			Help:      "Raw offers received from the provider",
		}),
		Records: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_records",
			Help:      "Carrier-only records produced by the last scan",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_search_duration_seconds",
			Help:      "Time taken by one window search, retries included",
			Buckets:   prometheus.DefBuckets,
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_last_success_timestamp_seconds",
			Help:      "Unix time the last scan finished",
		}),
	}
}

// APIMetrics holds the query service's collectors
type APIMetrics struct {
	Requests    *prometheus.CounterVec
	RowsServed  prometheus.Counter
	LoadSeconds prometheus.Histogram
}

// NewAPIMetrics registers the query service collectors on reg
func NewAPIMetrics(namespace string, reg prometheus.Registerer) *APIMetrics {
	factory := promauto.With(reg)
	return &APIMetrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Query service requests, by route and status code",
		}, []string{"route", "code"}),
		RowsServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_rows_served_total",
			Help:      "Rows returned in flight query pages",
		}),
		LoadSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_table_load_duration_seconds",
			Help:      "Time taken to load the flights table",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
