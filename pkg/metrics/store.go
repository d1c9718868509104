package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	storeSubsystem = "store"

	storeLabelKey  = "store"
	opLabelKey     = "op"
	resultLabelKey = "result"
)

type storeMetrics struct {
	opDuration *prometheus.HistogramVec
	opErrors   *prometheus.CounterVec

	nextID     *prometheus.GaugeVec
	levels     *prometheus.GaugeVec
	readCache  *prometheus.CounterVec
	writtenLen *prometheus.CounterVec
}

func newStoreMetrics() storeMetrics {
	var (
		opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "op_duration_seconds",
			Help:      "Object tree operations handling time",
		}, []string{storeLabelKey, opLabelKey})

		opErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "op_errors_total",
			Help:      "Number of failed object tree operations",
		}, []string{storeLabelKey, opLabelKey})

		nextID = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "next_id",
			Help:      "Identifier the next stored object receives",
		}, []string{storeLabelKey})

		levels = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "levels",
			Help:      "Depth of the object tree",
		}, []string{storeLabelKey})

		readCache = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "read_cache_requests_total",
			Help:      "Number of read cache lookups by result",
		}, []string{storeLabelKey, resultLabelKey})

		writtenLen = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storeSubsystem,
			Name:      "written_bytes_total",
			Help:      "Amount of encoded object data written",
		}, []string{storeLabelKey})
	)

	return storeMetrics{
		opDuration: opDuration,
		opErrors:   opErrors,
		nextID:     nextID,
		levels:     levels,
		readCache:  readCache,
		writtenLen: writtenLen,
	}
}

func (m storeMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.opDuration)
	reg.MustRegister(m.opErrors)
	reg.MustRegister(m.nextID)
	reg.MustRegister(m.levels)
	reg.MustRegister(m.readCache)
	reg.MustRegister(m.writtenLen)
}

// AddOpDuration records the duration of a single operation.
func (m storeMetrics) AddOpDuration(store, op string, d time.Duration) {
	m.opDuration.With(prometheus.Labels{storeLabelKey: store, opLabelKey: op}).Observe(d.Seconds())
}

// IncOpErrors counts a failed operation.
func (m storeMetrics) IncOpErrors(store, op string) {
	m.opErrors.With(prometheus.Labels{storeLabelKey: store, opLabelKey: op}).Inc()
}

func (m storeMetrics) SetNextID(store string, id uint64) {
	m.nextID.With(prometheus.Labels{storeLabelKey: store}).Set(float64(id))
}

func (m storeMetrics) SetLevels(store string, levels int) {
	m.levels.With(prometheus.Labels{storeLabelKey: store}).Set(float64(levels))
}

// AddReadCacheResult counts a read cache lookup.
func (m storeMetrics) AddReadCacheResult(store string, hit bool) {
	res := "miss"
	if hit {
		res = "hit"
	}
	m.readCache.With(prometheus.Labels{storeLabelKey: store, resultLabelKey: res}).Inc()
}

func (m storeMetrics) AddWrittenBytes(store string, n int) {
	m.writtenLen.With(prometheus.Labels{storeLabelKey: store}).Add(float64(n))
}
