package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 核验引擎指标
type Metrics struct {
	Votes       *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Decisions   *prometheus.CounterVec
}

// NewMetrics 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Votes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_votes_total",
				Help:      "Confirmation votes by result",
			},
			[]string{"result"},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_transitions_total",
				Help:      "Business status transitions by source and target status",
			},
			[]string{"source", "status"},
		),
		Decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_admin_decisions_total",
				Help:      "Admin decisions by decision and result",
			},
			[]string{"decision", "result"},
		),
	}
}

func (m *Metrics) vote(result string) {
	if m != nil {
		m.Votes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) transition(source, status string) {
	if m != nil {
		m.Transitions.WithLabelValues(source, status).Inc()
	}
}

func (m *Metrics) decision(decision, result string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision, result).Inc()
	}
}
