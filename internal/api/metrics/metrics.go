// Package metrics defines and registers all custom Prometheus metrics for the
// product API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Every collector is registered with the default Prometheus registry through
// promauto when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "product_api"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts account registration attempts.
// Label:
//   - result: "success", "taken", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthenticationFailuresTotal counts requests whose bearer token was rejected.
// Label:
//   - reason: "invalid_token" or "unknown_principal"
var AuthenticationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentication_failures_total",
		Help:      "Total number of requests carrying a bearer token that could not be authenticated.",
	},
	[]string{"reason"},
)

// AccessDecisionsTotal counts access-policy decisions.
// Labels:
//   - decision: "allow", "unauthenticated" or "forbidden"
//   - rule: the pattern of the rule that matched (e.g. "/products/**")
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of access-policy decisions, by outcome and matching rule.",
	},
	[]string{"decision", "rule"},
)

// PrincipalCacheTotal counts principal cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var PrincipalCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "principal_cache_total",
		Help:      "Total number of principal cache lookups, labelled by result (hit/miss/error).",
	},
	[]string{"result"},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductMutationsTotal counts successful catalog writes.
// Label:
//   - operation: "create", "update" or "delete"
var ProductMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_mutations_total",
		Help:      "Total number of successful product writes, by operation.",
	},
	[]string{"operation"},
)

// ProductsListedPageSize observes the effective page size of list requests.
var ProductsListedPageSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "products_list_page_size",
		Help:      "Effective page size served by product list requests.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100},
	},
)
