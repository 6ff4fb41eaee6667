package middleware

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeMalformed = "malformed"
)

// Metrics counts validation outcomes as
// <namespace>_validations_total{entity, outcome}.
type Metrics struct {
	validations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg. namespace
// defaults to "shapecheck".
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = "shapecheck"
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validations_total",
		Help:      "Request validations by entity and outcome (accepted, rejected, malformed).",
	}, []string{"entity", "outcome"})
	if err := reg.Register(cv); err != nil {
		return nil, err
	}
	return &Metrics{validations: cv}, nil
}

func (m *Metrics) observe(entity Entity, outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(string(entity), outcome).Inc()
}
