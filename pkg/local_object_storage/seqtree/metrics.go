package seqtree

import "time"

// Metrics collects storage statistics. Store is the name of the tree.
type Metrics interface {
	AddOpDuration(store, op string, d time.Duration)
	IncOpErrors(store, op string)
	SetNextID(store string, id uint64)
	SetLevels(store string, levels int)
	AddReadCacheResult(store string, hit bool)
	AddWrittenBytes(store string, n int)
}

type noopMetrics struct{}

func (noopMetrics) AddOpDuration(string, string, time.Duration) {}
func (noopMetrics) IncOpErrors(string, string)                  {}
func (noopMetrics) SetNextID(string, uint64)                    {}
func (noopMetrics) SetLevels(string, int)                       {}
func (noopMetrics) AddReadCacheResult(string, bool)             {}
func (noopMetrics) AddWrittenBytes(string, int)                 {}
