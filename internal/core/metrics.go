package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine activity. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	recomputes  prometheus.Counter
	stateWrites *prometheus.CounterVec
	mutations   *prometheus.CounterVec
	rows        *prometheus.GaugeVec
}

// NewMetrics creates engine metrics and registers them on reg. Collectors
// already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "occucalc_recompute_passes_total",
			Help: "Total number of reconciliation passes over both row collections",
		}),
		stateWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "occucalc_state_writes_total",
				Help: "Total number of state store writes",
			},
			[]string{"key", "result"}, // result: ok, error
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "occucalc_mutations_total",
				Help: "Total number of workspace mutations that changed state",
			},
			[]string{"op"},
		),
		rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "occucalc_rows",
				Help: "Current number of rows per collection",
			},
			[]string{"mode"},
		),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.recomputes, err = register(reg, m.recomputes); err != nil {
		return nil, err
	}
	if m.stateWrites, err = register(reg, m.stateWrites); err != nil {
		return nil, err
	}
	if m.mutations, err = register(reg, m.mutations); err != nil {
		return nil, err
	}
	if m.rows, err = register(reg, m.rows); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) recompute() {
	if m == nil {
		return
	}
	m.recomputes.Inc()
}

func (m *Metrics) stateWrite(key string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stateWrites.WithLabelValues(key, result).Inc()
}

func (m *Metrics) mutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

func (m *Metrics) rowCount(mode string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(mode).Set(float64(n))
}
