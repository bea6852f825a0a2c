package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockCredits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdesk_stock_credits_total",
		Help: "Ledger credit batches applied (confirmed deliveries).",
	})

	StockDebits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdesk_stock_debits_total",
		Help: "Ledger debit batches applied (usage reports).",
	})

	Conflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdesk_conflicts_total",
		Help: "Conditional writes that lost a race and were retried or surfaced.",
	})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partsdesk_request_transitions_total",
		Help: "Request status transitions applied, by target status.",
	}, []string{"to"})
)
