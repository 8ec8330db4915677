// Package metrics exposes the ledger's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsCommitted counts committed transactions by type.
	TransactionsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_committed_total",
		Help: "Committed ledger transactions by type.",
	}, []string{"type"})

	// TransactionsRejected counts rejected transactions by violated invariant.
	TransactionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_rejected_total",
		Help: "Rejected ledger transactions by invariant error code.",
	}, []string{"code"})

	// OracleFetches counts rate oracle calls by feed and outcome.
	OracleFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_oracle_fetches_total",
		Help: "Rate oracle fetches by feed and outcome.",
	}, []string{"feed", "outcome"})

	// OracleFetchDuration observes oracle call latency by feed.
	OracleFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_oracle_fetch_duration_seconds",
		Help:    "Rate oracle fetch latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	// RateCacheLookups counts quote cache lookups by result.
	RateCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rate_cache_lookups_total",
		Help: "Rate cache lookups by result (hit, miss).",
	}, []string{"result"})
)
