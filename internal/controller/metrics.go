// internal/controller/metrics.go

package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dappbank/internal/session"
)

type controllerPromMetrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	connected    prometheus.Gauge
	confirmedTxs *prometheus.CounterVec
}

func newControllerPromMetrics() *controllerPromMetrics {
	return &controllerPromMetrics{
		operations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dappbank_operations_total",
				Help: "Number of user operations by outcome",
			},
			[]string{"op", "result"},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dappbank_operation_duration_seconds",
				Help:    "Wall time of user operations, including wallet approval and confirmation",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60, 120},
			},
			[]string{"op"},
		),
		errors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dappbank_errors_total",
				Help: "Errors shown to the user, by kind",
			},
			[]string{"kind"},
		),
		connected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dappbank_wallet_connected",
				Help: "1 while a wallet account is connected",
			},
		),
		confirmedTxs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dappbank_confirmed_transactions_total",
				Help: "Transactions confirmed on chain",
			},
			[]string{"op"},
		),
	}
}

var metrics = newControllerPromMetrics()

func recordOperation(op session.Op, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.operations.With(prometheus.Labels{"op": string(op), "result": result}).Inc()
	metrics.duration.With(prometheus.Labels{"op": string(op)}).Observe(time.Since(started).Seconds())
}

func recordError(kind string) {
	metrics.errors.With(prometheus.Labels{"kind": kind}).Inc()
}

func recordConfirmed(op session.Op) {
	metrics.confirmedTxs.With(prometheus.Labels{"op": string(op)}).Inc()
}

func setConnected(on bool) {
	if on {
		metrics.connected.Set(1)
		return
	}
	metrics.connected.Set(0)
}
