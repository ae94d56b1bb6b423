package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds domain metrics
type Metrics struct {
	// Appointment metrics
	AppointmentsBooked     prometheus.Counter
	BookingConflicts       prometheus.Counter
	AppointmentTransitions *prometheus.CounterVec

	// OTP metrics
	OTPIssued           prometheus.Counter
	OTPVerifications    *prometheus.CounterVec
	OTPDeliveryFailures prometheus.Counter

	// Notification metrics
	NotificationsSent *prometheus.CounterVec
}

// New creates the metric set without registering it.
func New(namespace string) *Metrics {
	return &Metrics{
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointment",
			Name:      "booked_total",
			Help:      "Total number of booked appointments",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointment",
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the slot was taken",
		}),
		AppointmentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointment",
			Name:      "transitions_total",
			Help:      "Total number of appointment status transitions",
		}, []string{"to"}),
		OTPIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otp",
			Name:      "issued_total",
			Help:      "Total number of OTP codes issued",
		}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otp",
			Name:      "verifications_total",
			Help:      "Total number of OTP verifications by result",
		}, []string{"result"}),
		OTPDeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otp",
			Name:      "delivery_failures_total",
			Help:      "Total number of OTP codes that could not be delivered",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "sent_total",
			Help:      "Total number of notifications by status",
		}, []string{"status"}),
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.AppointmentsBooked,
		m.BookingConflicts,
		m.AppointmentTransitions,
		m.OTPIssued,
		m.OTPVerifications,
		m.OTPDeliveryFailures,
		m.NotificationsSent,
	)
}
