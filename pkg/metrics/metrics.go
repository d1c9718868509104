package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "seqtree"

// StoreMetrics collects metrics of object trees. A single instance can serve
// any number of trees distinguished by their names.
type StoreMetrics struct {
	storeMetrics
}

// NewStoreMetrics creates and registers store metrics in reg. Nil reg means
// [prometheus.DefaultRegisterer].
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	store := newStoreMetrics()
	store.register(reg)

	return &StoreMetrics{
		storeMetrics: store,
	}
}
