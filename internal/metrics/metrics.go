// Package metrics exposes Prometheus instrumentation for the unpack and
// restore pipeline: archives processed, entries extracted, and files
// written per restored kind.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var defaultRegistry = prometheus.DefaultRegisterer

// Metrics holds every counter, histogram, and gauge this module records.
type Metrics struct {
	archivesTotal        *prometheus.CounterVec
	archiveDuration      prometheus.Histogram
	entriesExtracted     prometheus.Counter
	entriesFailed        prometheus.Counter
	extractedBytes       prometheus.Counter
	restoredFilesTotal   *prometheus.CounterVec
	restoreErrorsTotal   *prometheus.CounterVec
	hardwareAcceleration *prometheus.GaugeVec
	goroutines           prometheus.Gauge
	memoryAllocBytes     prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(defaultRegistry)
}

// NewMetricsWithRegistry creates a Metrics instance against a custom
// registry, used in tests to avoid collector registration conflicts.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		archivesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wxapkg_archives_total",
				Help: "Total number of archives processed, by outcome",
			},
			[]string{"outcome"}, // "ok", "bad_identifier", "bad_archive", "io_error"
		),
		archiveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wxapkg_archive_duration_seconds",
				Help:    "Time to decrypt, parse, and extract one archive",
				Buckets: prometheus.DefBuckets,
			},
		),
		entriesExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wxapkg_entries_extracted_total",
				Help: "Total number of container entries written to disk",
			},
		),
		entriesFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wxapkg_entries_failed_total",
				Help: "Total number of container entries that failed to write",
			},
		),
		extractedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wxapkg_extracted_bytes_total",
				Help: "Total bytes written across all extracted entries",
			},
		),
		restoredFilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wxapkg_restored_files_total",
				Help: "Total number of restored source files written, by kind",
			},
			[]string{"kind"}, // "wxss", "wxml", "config"
		),
		restoreErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wxapkg_restore_errors_total",
				Help: "Total number of restore passes that errored, by kind",
			},
			[]string{"kind"},
		),
		hardwareAcceleration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wxapkg_hardware_acceleration_enabled",
				Help: "AES hardware acceleration availability (1=available, 0=not available)",
			},
			[]string{"type"},
		),
		goroutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wxapkg_goroutines",
				Help: "Number of goroutines",
			},
		),
		memoryAllocBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wxapkg_memory_alloc_bytes",
				Help: "Number of bytes allocated and not yet freed",
			},
		),
	}
}

// RecordArchive records the outcome and wall-clock duration of processing
// one archive.
func (m *Metrics) RecordArchive(outcome string, duration time.Duration) {
	m.archivesTotal.WithLabelValues(outcome).Inc()
	m.archiveDuration.Observe(duration.Seconds())
}

// RecordExtraction records a container extraction pass: entries written,
// entries failed, and total bytes written.
func (m *Metrics) RecordExtraction(written, failed int, bytes int64) {
	m.entriesExtracted.Add(float64(written))
	m.entriesFailed.Add(float64(failed))
	m.extractedBytes.Add(float64(bytes))
}

// RecordRestoredFiles records how many files a restore pass of the given
// kind wrote.
func (m *Metrics) RecordRestoredFiles(kind string, count int) {
	m.restoredFilesTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordRestoreError records a failed restore pass of the given kind.
func (m *Metrics) RecordRestoreError(kind string) {
	m.restoreErrorsTotal.WithLabelValues(kind).Inc()
}

// SetHardwareAcceleration sets the hardware acceleration gauge for a given
// acceleration type (e.g. "aes-ni").
func (m *Metrics) SetHardwareAcceleration(accelType string, enabled bool) {
	val := 0.0
	if enabled {
		val = 1.0
	}
	m.hardwareAcceleration.WithLabelValues(accelType).Set(val)
}

// UpdateSystemMetrics refreshes goroutine count and heap allocation gauges.
func (m *Metrics) UpdateSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.goroutines.Set(float64(runtime.NumGoroutine()))
	m.memoryAllocBytes.Set(float64(memStats.Alloc))
}
