package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/bazaarworks/marketledger/internal/domain"
)

// Metrics holds all Prometheus metrics for the ledger and settlement engine.
type Metrics struct {
	// Ledger metrics
	EntriesRecorded      *prometheus.CounterVec
	HoldsReleasedTotal   prometheus.Counter
	HoldReleaseBatchSize prometheus.Histogram

	// Settlement metrics
	SettlementsExecuted prometheus.Counter
	SettlementAmount    prometheus.Histogram
	SettlementEntries   prometheus.Histogram
	SettlementsRejected *prometheus.CounterVec
	InvariantViolations prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketledger_entries_recorded_total",
				Help: "Total number of ledger entries recorded by transaction type",
			},
			[]string{"transaction_type"},
		),
		HoldsReleasedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_holds_released_total",
			Help: "Total number of pending entries released to available",
		}),
		HoldReleaseBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketledger_hold_release_batch_size",
			Help:    "Number of entries released per release run",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000},
		}),

		SettlementsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_settlements_executed_total",
			Help: "Total number of settlements executed",
		}),
		SettlementAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketledger_settlement_amount",
			Help:    "Settlement payout amounts",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),
		SettlementEntries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketledger_settlement_entries_touched",
			Help:    "Number of ledger entries touched per settlement",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 500},
		}),
		SettlementsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketledger_settlements_rejected_total",
				Help: "Total number of rejected settlement attempts by reason",
			},
			[]string{"reason"},
		),
		InvariantViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_invariant_violations_total",
			Help: "Total number of ledger invariant violations detected",
		}),
	}
}

// EntryRecorded counts a recorded ledger entry.
func (m *Metrics) EntryRecorded(transactionType domain.TransactionType) {
	m.EntriesRecorded.WithLabelValues(string(transactionType)).Inc()
}

// HoldsReleased counts entries released from hold.
func (m *Metrics) HoldsReleased(count int64) {
	m.HoldsReleasedTotal.Add(float64(count))
	m.HoldReleaseBatchSize.Observe(float64(count))
}

// SettlementExecuted records a completed settlement.
func (m *Metrics) SettlementExecuted(amount decimal.Decimal, entriesTouched int) {
	m.SettlementsExecuted.Inc()
	m.SettlementAmount.Observe(amount.InexactFloat64())
	m.SettlementEntries.Observe(float64(entriesTouched))
}

// SettlementRejected counts a rejected settlement attempt.
func (m *Metrics) SettlementRejected(reason string) {
	m.SettlementsRejected.WithLabelValues(reason).Inc()
}

// InvariantViolation counts a detected invariant violation.
func (m *Metrics) InvariantViolation() {
	m.InvariantViolations.Inc()
}
