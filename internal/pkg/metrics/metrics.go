// Package metrics defines and registers the custom Prometheus collectors of
// the booking API. It is the single source of truth for metric names, labels
// and help strings. HTTP request metrics come from the echoprometheus
// middleware wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Appointment metrics ───────────────────────────────────────────────────────

// AppointmentsSubmittedTotal counts public submissions.
// Label:
//   - service_type: "individual", "couple" or "online"
var AppointmentsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_submitted_total",
		Help:      "Total number of appointment requests submitted, by service type.",
	},
	[]string{"service_type"},
)

// StatusTransitionsTotal counts admin status changes.
// Labels:
//   - from: previous status
//   - to: new status
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of appointment status transitions.",
	},
	[]string{"from", "to"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentsTotal counts payment status changes.
// Labels:
//   - channel: "client", "admin" or "refund"
//   - method: "card", "sbp" or "manual"
var PaymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_total",
		Help:      "Total number of payment status changes, by channel and method.",
	},
	[]string{"channel", "method"},
)

// PaymentRejectionsTotal counts client payments refused by a precondition.
var PaymentRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_rejections_total",
		Help:      "Total number of client payments rejected because of the appointment state.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts created client accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of client accounts registered.",
	},
)
