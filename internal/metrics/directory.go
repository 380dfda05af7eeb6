package metrics

import "github.com/prometheus/client_golang/prometheus"

// Directory Prometheus metrics.
var (
	ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirsearch",
			Name:      "imports_total",
			Help:      "Total number of list imports",
		},
		[]string{"status"},
	)

	EntriesImportedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dirsearch",
			Name:      "entries_imported_total",
			Help:      "Total entries written by successful imports",
		},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirsearch",
			Name:      "searches_total",
			Help:      "Total number of directory searches",
		},
		[]string{"mode"},
	)

	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dirsearch",
			Name:      "search_fallbacks_total",
			Help:      "Full-text queries that fell back to substring matching",
		},
	)
)

var dirMetricsRegistered bool

// RegisterDirectoryMetrics registers Prometheus directory metrics. Must be called once from main.
func RegisterDirectoryMetrics() {
	if dirMetricsRegistered {
		return
	}
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(EntriesImportedTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	dirMetricsRegistered = true
}

// Recorder adapts the package counters to the usecase metrics interfaces.
type Recorder struct{}

// ImportCompleted records one import outcome.
func (Recorder) ImportCompleted(status string, entries int) {
	ImportsTotal.WithLabelValues(status).Inc()
	if entries > 0 {
		EntriesImportedTotal.Add(float64(entries))
	}
}

// SearchPerformed records one search by mode.
func (Recorder) SearchPerformed(mode string) {
	SearchesTotal.WithLabelValues(mode).Inc()
}

// SearchFellBack records a substring fallback.
func (Recorder) SearchFellBack() {
	SearchFallbacksTotal.Inc()
}
