// Package metrics defines the Prometheus collectors of the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Metrics groups every collector. A nil *Metrics is valid and records nothing,
// so components can be built without a registry in tests.
type Metrics struct {
	rpcDuration         *prometheus.HistogramVec
	splitsComputed      *prometheus.CounterVec
	ledgerMutations     *prometheus.CounterVec
	conflictRetries     prometheus.Counter
	excludedSettlements prometheus.Counter
	excludedExpenses    prometheus.Counter
	balanceCache        *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	eventsDropped       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of RPC calls by procedure and result code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		splitsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_computed_total",
			Help:      "Expense splits computed, by split type.",
		}, []string{"split_type"}),
		ledgerMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_mutations_total",
			Help:      "Ledger mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		conflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflict_retries_total",
			Help:      "Mutations retried after a concurrent modification.",
		}),
		excludedSettlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_settlements_total",
			Help:      "Completed settlements left out of a balance computation.",
		}),
		excludedExpenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_expenses_total",
			Help:      "Expenses referencing non-members left out of a balance computation.",
		}),
		balanceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_cache_requests_total",
			Help:      "Balance cache lookups by result.",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events delivered to subscribers, by type.",
		}, []string{"type"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Domain events dropped because a subscriber was full, by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.rpcDuration,
		m.splitsComputed,
		m.ledgerMutations,
		m.conflictRetries,
		m.excludedSettlements,
		m.excludedExpenses,
		m.balanceCache,
		m.eventsPublished,
		m.eventsDropped,
	)
	return m
}

func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(seconds)
}

func (m *Metrics) SplitComputed(splitType string) {
	if m == nil {
		return
	}
	m.splitsComputed.WithLabelValues(splitType).Inc()
}

// LedgerMutation counts a finished mutation; outcome is "ok" or an error class.
func (m *Metrics) LedgerMutation(kind, outcome string) {
	if m == nil {
		return
	}
	m.ledgerMutations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ConflictRetry() {
	if m == nil {
		return
	}
	m.conflictRetries.Inc()
}

func (m *Metrics) ExcludedSettlements(n int) {
	if m == nil || n == 0 {
		return
	}
	m.excludedSettlements.Add(float64(n))
}

func (m *Metrics) ExcludedExpenses(n int) {
	if m == nil || n == 0 {
		return
	}
	m.excludedExpenses.Add(float64(n))
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.balanceCache.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.balanceCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) EventPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) EventDropped(eventType string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(eventType).Inc()
}
