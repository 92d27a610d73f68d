// Package metrics defines and registers all custom Prometheus metrics for the
// GradeIdea roast service. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics are registered with the default Prometheus registry at package
// load time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gradeidea"

// ── Roast job metrics ─────────────────────────────────────────────────────────

// RoastsStartedTotal counts jobs created, by funding mechanism.
// Label:
//   - funding: "token" or "payment"
var RoastsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roasts_started_total",
		Help:      "Total number of roast jobs created, by funding mechanism.",
	},
	[]string{"funding"},
)

// RoastsCompletedTotal counts jobs that reached a terminal status.
// Label:
//   - status: "ready" or "error"
var RoastsCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roasts_completed_total",
		Help:      "Total number of roast jobs that reached a terminal status.",
	},
	[]string{"status"},
)

// GenerationDuration measures the end-to-end latency of a single generation
// call. LLM round-trips run tens of seconds, hence the wide buckets.
// Label:
//   - outcome: "ok" or "error"
var GenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Duration of the external generation call per job.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
	},
	[]string{"outcome"},
)

// ── Token ledger metrics ──────────────────────────────────────────────────────

// TokenDebitsTotal counts debit attempts.
// Label:
//   - result: "ok" or "insufficient"
var TokenDebitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_debits_total",
		Help:      "Total number of token debit attempts, by result.",
	},
	[]string{"result"},
)

// ── Payment completion metrics ────────────────────────────────────────────────

// CompletionDedupTotal counts deduplication decisions on payment completions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new completion, processed)
var CompletionDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_dedup_total",
		Help:      "Total number of completion dedup checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CompletionQueueDepth tracks the number of completions waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CompletionQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "completion_queue_depth",
		Help:      "Current number of payment completions pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
