// Package metrics holds the Prometheus instruments shared by the domain
// subsystem. All collectors are registered with the default registry, so
// mounting promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// VerificationsTotal counts ownership checks by outcome reason.
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bxsite_domain_verifications_total",
			Help: "Domain ownership verifications by result reason.",
		}, []string{"reason"})

	// RoutedRequestsTotal counts host routing decisions.
	RoutedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bxsite_routed_requests_total",
			Help: "Inbound requests by host routing decision.",
		}, []string{"decision"})

	// WritesRejectedTotal counts site writes refused by the rate limiter or quota.
	WritesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bxsite_writes_rejected_total",
			Help: "Site writes rejected before mutation, by cause.",
		}, []string{"cause"})

	// InfraSideEffectFailuresTotal counts failed best-effort hosting calls.
	InfraSideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bxsite_infra_side_effect_failures_total",
			Help: "Failed best-effort hosting provider domain calls.",
		}, []string{"op"})

	// SweepRunsTotal counts pending-domain sweeps.
	SweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bxsite_pending_sweeps_total",
			Help: "Completed sweeps over pending custom domains.",
		})
)

func init() {
	prometheus.MustRegister(
		VerificationsTotal,
		RoutedRequestsTotal,
		WritesRejectedTotal,
		InfraSideEffectFailuresTotal,
		SweepRunsTotal,
	)
}
