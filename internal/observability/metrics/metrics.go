package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the slot allocation engine.
type BookingMetrics struct {
	allocationsTotal    *prometheus.CounterVec
	rejectionsTotal     *prometheus.CounterVec
	allocationLatency   prometheus.Histogram
	availabilityTotal   prometheus.Counter
	storageRetriesTotal prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		allocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ginecare",
			Subsystem: "booking",
			Name:      "allocations_total",
			Help:      "Total allocation attempts by outcome",
		}, []string{"operation", "outcome"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ginecare",
			Subsystem: "booking",
			Name:      "rejections_total",
			Help:      "Total rejected requests by rejection code",
		}, []string{"code"}),
		allocationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ginecare",
			Subsystem: "booking",
			Name:      "allocation_latency_seconds",
			Help:      "Latency of allocate/reschedule calls",
			Buckets:   prometheus.DefBuckets,
		}),
		availabilityTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ginecare",
			Subsystem: "booking",
			Name:      "availability_queries_total",
			Help:      "Total availability listings served",
		}),
		storageRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ginecare",
			Subsystem: "booking",
			Name:      "storage_retries_total",
			Help:      "Transient storage errors that triggered a retry",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.allocationsTotal, m.rejectionsTotal, m.allocationLatency, m.availabilityTotal, m.storageRetriesTotal)
	return m
}

func (m *BookingMetrics) ObserveAllocation(operation, outcome string) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *BookingMetrics) ObserveRejection(code string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(code).Inc()
}

func (m *BookingMetrics) ObserveAllocationLatency(seconds float64) {
	if m == nil {
		return
	}
	m.allocationLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveAvailabilityQuery() {
	if m == nil {
		return
	}
	m.availabilityTotal.Inc()
}

func (m *BookingMetrics) ObserveStorageRetry() {
	if m == nil {
		return
	}
	m.storageRetriesTotal.Inc()
}
