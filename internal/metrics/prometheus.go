package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PlannerMetrics holds all Prometheus metrics emitted by the topology
// planner.
type PlannerMetrics struct {
	PlanRequestsTotal        *prometheus.CounterVec
	PlanDuration             *prometheus.HistogramVec
	PlacementFailuresTotal   *prometheus.CounterVec
	FallbackInvocationsTotal prometheus.Counter
	TopologyPartitionsGauge  prometheus.Gauge
	TopologyHostsGauge       prometheus.Gauge
}

// NewPlannerMetrics creates and registers the planner's Prometheus metrics.
func NewPlannerMetrics() *PlannerMetrics {
	return &PlannerMetrics{
		PlanRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_plan_requests_total",
				Help: "Total number of topology plan requests processed",
			},
			[]string{"strategy", "status"},
		),

		PlanDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_plan_duration_seconds",
				Help:    "Duration of topology planning",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),

		PlacementFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_placement_failures_total",
				Help: "Total number of placement failures by strategy",
			},
			[]string{"strategy", "reason"},
		),

		FallbackInvocationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_fallback_invocations_total",
				Help: "Total number of times the planner fell back to round-robin placement",
			},
		),

		TopologyPartitionsGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_topology_partitions",
				Help: "Number of partitions in the most recently emitted topology",
			},
		),

		TopologyHostsGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_topology_hosts",
				Help: "Number of hosts in the most recently emitted topology",
			},
		),
	}
}

// RecordPlanRequest records a completed plan request.
func (m *PlannerMetrics) RecordPlanRequest(strategy, status string, duration float64) {
	m.PlanRequestsTotal.WithLabelValues(strategy, status).Inc()
	m.PlanDuration.WithLabelValues(strategy).Observe(duration)
}

// RecordPlacementFailure records a placement failure for a given strategy
// and reason (e.g. "infeasible", "insufficient_group_diversity").
func (m *PlannerMetrics) RecordPlacementFailure(strategy, reason string) {
	m.PlacementFailuresTotal.WithLabelValues(strategy, reason).Inc()
}

// RecordFallbackInvocation records that the planner fell back to
// round-robin placement.
func (m *PlannerMetrics) RecordFallbackInvocation() {
	m.FallbackInvocationsTotal.Inc()
}

// UpdateTopologyGauges updates the gauges describing the most recently
// emitted topology's shape.
func (m *PlannerMetrics) UpdateTopologyGauges(partitionCount, hostCount int) {
	m.TopologyPartitionsGauge.Set(float64(partitionCount))
	m.TopologyHostsGauge.Set(float64(hostCount))
}
