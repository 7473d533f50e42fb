package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Board (client side)

	BoardRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "board",
		Name:      "refreshes_total",
		Help:      "Snapshot refreshes, labelled by trigger and result.",
	}, []string{"trigger", "result"})

	BoardActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "board",
		Name:      "actions_total",
		Help:      "Dispatched task actions, labelled by action and result.",
	}, []string{"action", "result"})

	BoardAliasConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "board",
		Name:      "alias_conflicts_total",
		Help:      "Snapshots where alias spellings carried diverging records.",
	}, []string{"task_id"})

	BoardDerivedCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "board",
		Name:      "derived_completions_total",
		Help:      "Tasks marked completed from collaborator evidence.",
	}, []string{"task_id"})

	BoardStaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "board",
		Name:      "stale_responses_total",
		Help:      "Responses discarded because the selected date changed.",
	})

	// Server

	ServerTaskWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "server",
		Name:      "task_writes_total",
		Help:      "Persisted workflow task writes, labelled by operation.",
	}, []string{"op"})

	ServerPushSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serviceboard",
		Subsystem: "server",
		Name:      "push_sent_total",
		Help:      "Web push deliveries, labelled by result.",
	}, []string{"result"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
