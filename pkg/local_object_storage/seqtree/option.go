package seqtree

import (
	"io/fs"

	"go.uber.org/zap"
)

// Option configures a Cache.
type Option func(*cfg)

type cfg struct {
	log       *zap.Logger
	perm      fs.FileMode
	readOnly  bool
	rng       uint64
	cacheSize int
	metrics   Metrics
}

func defaultCfg() cfg {
	return cfg{
		log:     zap.NewNop(),
		perm:    0o700,
		metrics: noopMetrics{},
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPerm sets permissions of created directories.
func WithPerm(p fs.FileMode) Option {
	return func(c *cfg) {
		c.perm = p
	}
}

// WithReadOnly opens the tree in read-only mode. Read-only handles do not
// take the writer lock and fail modifying operations with
// common.ErrReadOnly.
func WithReadOnly(ro bool) Option {
	return func(c *cfg) {
		c.readOnly = ro
	}
}

// WithRange provides the range for Open. It is required for trees of a
// single level, for deeper trees it is checked against the layout.
func WithRange(r uint64) Option {
	return func(c *cfg) {
		c.rng = r
	}
}

// WithReadCache enables LRU cache of n most recently used encoded objects.
// Zero disables caching.
func WithReadCache(n int) Option {
	return func(c *cfg) {
		c.cacheSize = n
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(c *cfg) {
		if m != nil {
			c.metrics = m
		}
	}
}
