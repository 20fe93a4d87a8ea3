package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		syncDrainsTotal,
		draftsSyncedTotal,
	)
}

var (
	syncDrainsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_drains_total",
			Help: "Completed drain passes over the local draft queue.",
		},
	)

	draftsSyncedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drafts_synced_total",
			Help: "Draft sync attempts by outcome (synced/error).",
		},
		[]string{"outcome"},
	)
)

func IncSyncDrain() { syncDrainsTotal.Inc() }

func IncDraftSynced(outcome string) {
	draftsSyncedTotal.WithLabelValues(norm(outcome)).Inc()
}
