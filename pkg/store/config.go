package store

// config.go defines Store's functional options, adapted from the teacher's
// generic Option[K,V]/config[K,V] pair: shardkv's Entry has a concrete
// shape, so options close directly over *config instead of threading type
// parameters through.
//
// © 2025 shardkv authors. MIT License.

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arenakv/shardkv/internal/clockpro"
)

// EjectReason re-exports clockpro's reason enum so callers never import
// internal/clockpro directly.
type EjectReason = clockpro.EvictionReason

// EjectCallback is invoked when an entry is displaced by CLOCK-Pro capacity
// pressure (never for TTL expiration — that is reported separately by the
// timer wheel's own callback). Runs on the owning shard goroutine and must
// not block.
type EjectCallback func(key Key, entry *Entry, reason EjectReason)

// Option configures a Store at construction time.
type Option func(*config)

type config struct {
	capBytes int64
	logger   *zap.Logger
	ejectCb  EjectCallback
	metrics  metricsSink
}

func defaultConfig(capBytes int64) *config {
	return &config{
		capBytes: capBytes,
		logger:   zap.NewNop(),
		metrics:  noopMetrics{},
	}
}

// WithLogger plugs an external zap.Logger. The store logs arena generation
// rotation at Warn level and each eviction at Debug level; nothing else.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEjectCallback registers a callback fired on CLOCK-Pro capacity
// eviction.
func WithEjectCallback(cb EjectCallback) Option {
	return func(c *config) { c.ejectCb = cb }
}

// WithMetrics attaches a Prometheus-backed metrics sink, constructed via
// NewPrometheusMetrics. Pass nil to keep the no-op sink (the default).
func WithMetrics(sink *PrometheusMetrics) Option {
	return func(c *config) {
		if sink != nil {
			c.metrics = sink
		}
	}
}

func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.capBytes <= 0 {
		return errInvalidCap
	}
	return nil
}

var errInvalidCap = errors.New("store: capacity bytes must be > 0")

// sweepInterval is how often the owning shard goroutine should call
// Store.Sweep to drain expired entries from the timer wheel; exposed as a
// constant rather than a config knob since spec.md ties it to wall-clock
// coarseness, not a tunable the operator needs.
const sweepInterval = 100 * time.Millisecond

// SweepInterval returns the recommended interval between Sweep calls.
func SweepInterval() time.Duration { return sweepInterval }
