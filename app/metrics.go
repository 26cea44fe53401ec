package app

import (
	"strconv"

	"github.com/iov-one/quorum/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks block production and transaction outcomes. A nil *Metrics
// records nothing.
type Metrics struct {
	height    prometheus.Gauge
	delivered prometheus.Counter
	failed    *prometheus.CounterVec
	dropped   prometheus.Counter
}

// NewMetrics registers the application metrics with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		height: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quorum_app_height",
				Help: "height of the last committed block",
			},
		),
		delivered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quorum_app_tx_delivered_total",
				Help: "transactions delivered successfully",
			},
		),
		failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_app_tx_failed_total",
				Help: "transactions that failed delivery by ABCI error code",
			},
			[]string{"code"},
		),
		dropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quorum_app_events_dropped_total",
				Help: "events not delivered to a slow subscriber",
			},
		),
	}
}

func (m *Metrics) committed(height int64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

func (m *Metrics) txDelivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

func (m *Metrics) txFailed(err error) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(strconv.FormatUint(uint64(errors.ABCICode(err)), 10)).Inc()
}

func (m *Metrics) eventsDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(float64(n))
}
