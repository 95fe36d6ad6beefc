// Package metrics exports governance transaction counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"xdao.co/idgov/gov"
	"xdao.co/idgov/schema"
)

var (
	registerOnce sync.Once

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idgov",
			Subsystem: "gov",
			Name:      "transactions_total",
			Help:      "Governance transaction attempts by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	transactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idgov",
			Subsystem: "gov",
			Name:      "transaction_duration_seconds",
			Help:      "Governance transaction duration in seconds, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	ledgerSubmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idgov",
			Subsystem: "ledger",
			Name:      "submits_total",
			Help:      "Payloads processed by the ledger by status.",
		},
		[]string{"status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transactions, transactionDuration, ledgerSubmits)
	})
}

// Recorder is a gov.Observer backed by the package collectors.
type Recorder struct{}

func (Recorder) Observe(op schema.Op, err error, elapsed time.Duration) {
	RecordTransaction(op, err, elapsed)
}

func RecordTransaction(op schema.Op, err error, elapsed time.Duration) {
	RegisterMetrics()
	label := opLabel(op)
	transactions.WithLabelValues(label, Outcome(err)).Inc()
	transactionDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// RecordSubmit counts one ledger submission; status is "ok" or an abort code.
func RecordSubmit(status string) {
	RegisterMetrics()
	if status == "" {
		status = "ok"
	}
	ledgerSubmits.WithLabelValues(status).Inc()
}

// Outcome labels err by its governance kind.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	if k := gov.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

func opLabel(op schema.Op) string {
	if op == 0 {
		return "none"
	}
	return op.String()
}
