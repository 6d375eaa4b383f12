// Package telemetry implements the Prometheus counters, leg-latency
// histogram and daily-PnL gauge of spec component 4.12. The histogram
// is cumulative, not a rolling window, and this package has no periodic
// reporter. Grounded
// on chidi150c-coinbase's metrics.go: CounterVec/Gauge/GaugeVec
// registered once via prometheus.MustRegister in a constructor, with
// small setter/incrementer helper methods per metric — generalized
// here from that repo's model/risk-factor gauges to execution and
// opportunity counters for the triangular-arbitrage domain.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/triarb/triarb/internal/domain"
)

// Telemetry implements ports.MetricsSink over Prometheus collectors.
type Telemetry struct {
	opportunities *prometheus.CounterVec
	executions    *prometheus.CounterVec
	legLatency    prometheus.Histogram
	dailyPnL      prometheus.Gauge
}

// New registers the collectors against reg and returns a Telemetry.
// Pass prometheus.NewRegistry() in tests to avoid polluting the
// default global registry across test runs.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		opportunities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triarb",
			Name:      "opportunities_total",
			Help:      "Opportunities emitted by the detector, by triangle.",
		}, []string{"triangle_id"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triarb",
			Name:      "executions_total",
			Help:      "Executions by final status.",
		}, []string{"status"}),
		legLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triarb",
			Name:      "leg_latency_us",
			Help:      "Per-leg dispatch latency in microseconds.",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 14),
		}),
		dailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "triarb",
			Name:      "daily_pnl",
			Help:      "Running daily realised PnL in base-currency units.",
		}),
	}

	reg.MustRegister(t.opportunities, t.executions, t.legLatency, t.dailyPnL)

	return t
}

// IncOpportunities implements ports.MetricsSink.
func (t *Telemetry) IncOpportunities(triangleID string) {
	t.opportunities.WithLabelValues(triangleID).Inc()
}

// IncExecutions implements ports.MetricsSink.
func (t *Telemetry) IncExecutions(status domain.ExecutionStatus) {
	t.executions.WithLabelValues(string(status)).Inc()
}

// ObserveLegLatencyUs implements ports.MetricsSink.
func (t *Telemetry) ObserveLegLatencyUs(us float64) {
	t.legLatency.Observe(us)
}

// SetDailyPnL implements ports.MetricsSink.
func (t *Telemetry) SetDailyPnL(pnl float64) {
	t.dailyPnL.Set(pnl)
}
