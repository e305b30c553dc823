package application

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noisebridge/baron/internal/domain/model"
)

// Metrics holds the Prometheus collectors updated by the door loop, the
// authorizer and the registry loader.
type Metrics struct {
	Attempts      *prometheus.CounterVec
	GateFailures  prometheus.Counter
	Reloads       *prometheus.CounterVec
	ReadErrors    prometheus.Counter
	RegistryCodes prometheus.Gauge
}

// Reload results used as the "result" label on baron_registry_reloads_total.
const (
	ReloadLoaded    = "loaded"
	ReloadUnchanged = "unchanged"
	ReloadFailed    = "failed"
)

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what most tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "baron_attempts_total",
			Help: "Keypad authorization attempts by decision.",
		}, []string{"decision"}),
		GateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baron_gate_failures_total",
			Help: "Accepted codes for which the gate trigger did not succeed.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "baron_registry_reloads_total",
			Help: "Code registry reload checks by result.",
		}, []string{"result"}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baron_keypad_read_errors_total",
			Help: "Failed reads from the keypad device.",
		}),
		RegistryCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "baron_registry_codes",
			Help: "Credentials in the authoritative registry.",
		}),
	}

	// Pre-create label values so they export as zero before the first event.
	for _, d := range []model.Decision{model.DecisionGranted, model.DecisionDenied, model.DecisionGateFailed} {
		m.Attempts.WithLabelValues(string(d))
	}
	for _, r := range []string{ReloadLoaded, ReloadUnchanged, ReloadFailed} {
		m.Reloads.WithLabelValues(r)
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.GateFailures, m.Reloads, m.ReadErrors, m.RegistryCodes)
	}
	return m
}
