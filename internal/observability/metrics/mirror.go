// Package metrics provides stream buffer metrics for observability
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShutdownTimeout is the grace period for stopping the metrics endpoint.
const ShutdownTimeout = 5 * time.Second

// MirrorMetrics contains Prometheus metrics for stream buffer operations
type MirrorMetrics struct {
	registry *prometheus.Registry

	// Buffer write operation metrics
	bufferWritesTotal     *prometheus.CounterVec
	bufferWriteBytesTotal *prometheus.CounterVec
	bufferWriteErrors     *prometheus.CounterVec

	// Buffer read operation metrics
	bufferReadsTotal     *prometheus.CounterVec
	bufferReadBytesTotal *prometheus.CounterVec
	bufferNotReadyTotal  *prometheus.CounterVec

	// Buffer state metrics
	bufferOverflowsTotal   *prometheus.CounterVec
	bufferCapacityGauge    *prometheus.GaugeVec
	bufferUtilizationGauge *prometheus.GaugeVec

	// Export metrics
	segmentsExportedTotal *prometheus.CounterVec
	exportErrors          *prometheus.CounterVec
}

// NewMirrorMetrics creates and registers new stream buffer metrics
func NewMirrorMetrics(registry *prometheus.Registry) (*MirrorMetrics, error) {
	m := &MirrorMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MirrorMetrics) initMetrics() error {
	m.bufferWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_writes_total",
			Help: "Total number of writes into the stream buffer",
		},
		[]string{"source"},
	)

	m.bufferWriteBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_write_bytes_total",
			Help: "Total bytes written into the stream buffer",
		},
		[]string{"source"},
	)

	m.bufferWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_write_errors_total",
			Help: "Total number of rejected stream buffer writes",
		},
		[]string{"source"},
	)

	m.bufferReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_reads_total",
			Help: "Total number of reads from the stream buffer",
		},
		[]string{"source"},
	)

	m.bufferReadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_read_bytes_total",
			Help: "Total bytes read from the stream buffer",
		},
		[]string{"source"},
	)

	m.bufferNotReadyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_not_ready_total",
			Help: "Total number of reads gated by the filling state",
		},
		[]string{"source"},
	)

	m.bufferOverflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_buffer_overflows_total",
			Help: "Total number of writes that discarded unread data",
		},
		[]string{"source"},
	)

	m.bufferCapacityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirror_buffer_capacity_bytes",
			Help: "Capacity of the stream buffer in bytes",
		},
		[]string{"source"},
	)

	m.bufferUtilizationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirror_buffer_utilization_ratio",
			Help: "Unread bytes as a fraction of buffer capacity",
		},
		[]string{"source"},
	)

	m.segmentsExportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_segments_exported_total",
			Help: "Total number of WAV segments exported",
		},
		[]string{"source"},
	)

	m.exportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_export_errors_total",
			Help: "Total number of failed WAV segment exports",
		},
		[]string{"source"},
	)

	collectors := []prometheus.Collector{
		m.bufferWritesTotal,
		m.bufferWriteBytesTotal,
		m.bufferWriteErrors,
		m.bufferReadsTotal,
		m.bufferReadBytesTotal,
		m.bufferNotReadyTotal,
		m.bufferOverflowsTotal,
		m.bufferCapacityGauge,
		m.bufferUtilizationGauge,
		m.segmentsExportedTotal,
		m.exportErrors,
	}
	for _, collector := range collectors {
		if err := m.registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordBufferWrite records a successful write of n bytes for a source
func (m *MirrorMetrics) RecordBufferWrite(source string, n int) {
	m.bufferWritesTotal.WithLabelValues(source).Inc()
	m.bufferWriteBytesTotal.WithLabelValues(source).Add(float64(n))
}

// RecordBufferWriteError records a rejected write for a source
func (m *MirrorMetrics) RecordBufferWriteError(source string) {
	m.bufferWriteErrors.WithLabelValues(source).Inc()
}

// RecordBufferRead records a successful read of n bytes for a source
func (m *MirrorMetrics) RecordBufferRead(source string, n int) {
	m.bufferReadsTotal.WithLabelValues(source).Inc()
	m.bufferReadBytesTotal.WithLabelValues(source).Add(float64(n))
}

// RecordBufferNotReady records a read gated by the filling state
func (m *MirrorMetrics) RecordBufferNotReady(source string) {
	m.bufferNotReadyTotal.WithLabelValues(source).Inc()
}

// RecordBufferOverflow records a write that discarded unread data
func (m *MirrorMetrics) RecordBufferOverflow(source string) {
	m.bufferOverflowsTotal.WithLabelValues(source).Inc()
}

// UpdateBufferState updates the capacity and utilization gauges for a source
func (m *MirrorMetrics) UpdateBufferState(source string, capacity, available int) {
	m.bufferCapacityGauge.WithLabelValues(source).Set(float64(capacity))
	if capacity > 0 {
		m.bufferUtilizationGauge.WithLabelValues(source).Set(float64(available) / float64(capacity))
	}
}

// RecordSegmentExported records one exported WAV segment
func (m *MirrorMetrics) RecordSegmentExported(source string) {
	m.segmentsExportedTotal.WithLabelValues(source).Inc()
}

// RecordExportError records one failed WAV segment export
func (m *MirrorMetrics) RecordExportError(source string) {
	m.exportErrors.WithLabelValues(source).Inc()
}
