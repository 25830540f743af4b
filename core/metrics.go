package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the engine. A nil *Metrics is a valid no-op receiver so
// embedders that don't run Prometheus can skip it entirely.
type Metrics struct {
	applies          *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepCandidates  *prometheus.CounterVec
	sweepDeactivated *prometheus.CounterVec
	sweepFailures    *prometheus.CounterVec
	notifyFailures   prometheus.Counter
}

// NewMetrics builds and registers the engine's collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "grants_applied_total",
				Help:      "Entitlement grants created, by type.",
			},
			[]string{"type"},
		),
		sweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "sweep_runs_total",
				Help:      "Sweep runs, by family and outcome.",
			},
			[]string{"family", "outcome"},
		),
		sweepCandidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "sweep_candidates_total",
				Help:      "Expired candidates found by sweeps, by family.",
			},
			[]string{"family"},
		),
		sweepDeactivated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "sweep_deactivated_total",
				Help:      "Candidates successfully deactivated, by family.",
			},
			[]string{"family"},
		),
		sweepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "sweep_item_failures_total",
				Help:      "Per-item sweep failures left for the next tick, by family.",
			},
			[]string{"family"},
		),
		notifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grantkit",
				Name:      "notification_failures_total",
				Help:      "Notification dispatch failures (state transitions unaffected).",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.applies,
			m.sweepRuns,
			m.sweepCandidates,
			m.sweepDeactivated,
			m.sweepFailures,
			m.notifyFailures,
		)
	}
	return m
}

func (m *Metrics) Applied(typ EntitlementType) {
	if m == nil {
		return
	}
	m.applies.WithLabelValues(string(typ)).Inc()
}

func (m *Metrics) SweepRun(family string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.sweepRuns.WithLabelValues(family, outcome).Inc()
}

func (m *Metrics) SweepItems(family string, candidates, deactivated, failed int) {
	if m == nil {
		return
	}
	m.sweepCandidates.WithLabelValues(family).Add(float64(candidates))
	m.sweepDeactivated.WithLabelValues(family).Add(float64(deactivated))
	m.sweepFailures.WithLabelValues(family).Add(float64(failed))
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
