package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts slot lookups, wizard rejections and completed bookings.
type BookingMetrics struct {
	slotRequests    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	bookings        *prometheus.CounterVec
	confirmDuration prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellabook",
			Subsystem: "availability",
			Name:      "slot_requests_total",
			Help:      "Slot computations by whether any slot was available",
		}, []string{"result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellabook",
			Subsystem: "wizard",
			Name:      "rejections_total",
			Help:      "Wizard actions rejected, by reason",
		}, []string{"reason"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellabook",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Bookings attempted, by source and outcome",
		}, []string{"source", "outcome"}),
		confirmDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bellabook",
			Subsystem: "booking",
			Name:      "confirm_duration_seconds",
			Help:      "Time spent recording a confirmed booking",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotRequests, m.rejections, m.bookings, m.confirmDuration)
	return m
}

func (m *BookingMetrics) ObserveSlots(count int) {
	if m == nil {
		return
	}
	result := "available"
	if count == 0 {
		result = "empty"
	}
	m.slotRequests.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) ObserveBooking(source string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "completed"
	if !ok {
		outcome = "failed"
	}
	m.bookings.WithLabelValues(source, outcome).Inc()
	if source == "public" {
		m.confirmDuration.Observe(seconds)
	}
}
