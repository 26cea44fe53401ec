package multisig

import (
	"strconv"

	"github.com/iov-one/quorum/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the lifecycle transitions of proposals. A nil *Metrics
// records nothing.
type Metrics struct {
	proposals   *prometheus.CounterVec
	approvals   prometheus.Counter
	revocations prometheus.Counter
	executions  *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewMetrics registers the multisig metrics with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		proposals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_multisig_proposals_created_total",
				Help: "proposals created by action kind",
			},
			[]string{"kind"},
		),
		approvals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quorum_multisig_approvals_total",
				Help: "approvals recorded",
			},
		),
		revocations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quorum_multisig_revocations_total",
				Help: "approvals revoked",
			},
		),
		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_multisig_executions_total",
				Help: "proposals executed by action kind",
			},
			[]string{"kind"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_multisig_rejected_total",
				Help: "delivered operations rejected by ABCI error code",
			},
			[]string{"path", "code"},
		),
	}
}

func (m *Metrics) proposalCreated(kind string) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(kind).Inc()
}

func (m *Metrics) approved() {
	if m == nil {
		return
	}
	m.approvals.Inc()
}

func (m *Metrics) revoked() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

func (m *Metrics) executed(kind string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(kind).Inc()
}

func (m *Metrics) rejectedWith(path string, err error) {
	if m == nil || err == nil {
		return
	}
	code := strconv.FormatUint(uint64(errors.ABCICode(err)), 10)
	m.rejected.WithLabelValues(path, code).Inc()
}
