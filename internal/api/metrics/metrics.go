// Package metrics defines and registers all custom Prometheus metrics for the
// hospital system API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hms"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "account_disabled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts successfully created patient accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of patient accounts created.",
	},
)

// TokenValidationsTotal counts bearer-token validation outcomes in the
// authentication middleware.
// Label:
//   - result: "bound" (principal attached), "invalid" (bad or expired token),
//     "unknown_subject" (token subject no longer exists)
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of bearer token validations, by result.",
	},
	[]string{"result"},
)

// ResetRequestsTotal counts password reset link requests.
// Label:
//   - result: "accepted", "unknown_email"
var ResetRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_requests_total",
		Help:      "Total number of password reset link requests, by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts completed password resets.
var PasswordResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of passwords successfully reset via token.",
	},
)
