package store

// store.go is the cache store (spec.md §4.4): a power-of-two bucketed hash
// table keyed by (hash, bytes), load factor 0.75, doubling rehash. Adapted
// from the teacher's pkg/cache.go shard[K,V]: that type needed a
// sync.RWMutex because multiple goroutines could reach one shard; a
// shardkv Store is only ever touched by its owning shard goroutine
// (spec.md §5), so the mutex is dropped entirely rather than ported.
//
// © 2025 shardkv authors. MIT License.

import (
	"bytes"
	"time"

	"go.uber.org/zap"

	"github.com/arenakv/shardkv/internal/clockpro"
	"github.com/arenakv/shardkv/internal/genring"
	"github.com/arenakv/shardkv/internal/timerwheel"
	"github.com/arenakv/shardkv/internal/unsafehelpers"
)

const loadFactor = 0.75

// Store is one shard's cache store plus its CLOCK-Pro eviction ring, arena
// generations and expiration timer wheel — everything spec.md groups under
// C4 and C5, owned together because they all answer to the same shard
// goroutine and cooperate on every write.
type Store struct {
	buckets []*Entry
	count   int64

	cfg   *config
	clock *clockpro.Clock
	wheel *timerwheel.Wheel
	gens  *genring.Ring
}

// New constructs a Store with the given capacity budget in bytes.
func New(capBytes int64, opts ...Option) (*Store, error) {
	cfg := defaultConfig(capBytes)
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	s := &Store{
		buckets: make([]*Entry, 16),
		cfg:     cfg,
		wheel:   timerwheel.New(),
		gens:    genring.New(capBytes),
	}
	s.clock = clockpro.NewClock(capBytes, s.onEvict)
	return s, nil
}

func (s *Store) onEvict(n clockpro.Node, reason clockpro.EvictionReason) {
	e, ok := n.(*Entry)
	if !ok {
		return
	}
	s.removeFromBucket(e.key)
	s.wheel.Disarm(unsafehelpers.BytesToString(e.key.Bytes))
	s.cfg.metrics.incEviction()
	if s.cfg.ejectCb != nil {
		s.cfg.ejectCb(e.key, e, reason)
	}
	s.cfg.logger.Debug("entry evicted", zap.ByteString("key", e.key.Bytes), zap.Uint8("reason", uint8(reason)))
}

func (s *Store) bucketIndex(hash uint64) uint64 {
	return hash & uint64(len(s.buckets)-1)
}

// AllocBytes copies b into the active arena generation, rotating to a fresh
// generation first if the active one has exceeded its share of the byte
// budget (spec.md §4.1's compaction discipline, rendered as generation
// rotation per SPEC_FULL.md §4.1).
func (s *Store) AllocBytes(b []byte) []byte {
	if s.gens.CheckRotationNeeded(int64(len(b))) {
		dead := s.gens.Rotate()
		if dead != nil {
			s.clock.GenerationEvicted(dead.ID())
			s.cfg.logger.Warn("arena generation rotated", zap.Uint32("generation", dead.ID()))
		}
	}
	return s.gens.Active().Region().AllocBytes(b)
}

// Insert adds a freshly constructed entry. The caller must not already hold
// an entry for the same key; use Replace for upsert semantics.
//
// A TagBytes payload is copied into the active arena generation first
// (spec.md §3's "managed byte buffer"): the caller's slice is typically a
// request argument the RESP parser owns, and the arena is what gives its
// storage bulk-teardown semantics on generation rotation.
func (s *Store) Insert(e *Entry) {
	if e.Tag == TagBytes {
		e.Bytes = s.AllocBytes(e.Bytes)
	}
	e.SetGenID(s.gens.Active().ID())
	idx := s.bucketIndex(e.key.Hash)
	e.next = s.buckets[idx]
	s.buckets[idx] = e
	s.count++
	if e.HasDeadline() {
		s.wheel.Arm(unsafehelpers.BytesToString(e.key.Bytes), e.Deadline)
	}
	s.clock.Insert(e)
	s.cfg.metrics.setEntries(s.count)
	s.maybeRehash()
}

func (s *Store) removeFromBucket(key Key) *Entry {
	idx := s.bucketIndex(key.Hash)
	var prev *Entry
	cur := s.buckets[idx]
	for cur != nil {
		if cur.key.Hash == key.Hash && bytes.Equal(cur.key.Bytes, key.Bytes) {
			if prev == nil {
				s.buckets[idx] = cur.next
			} else {
				prev.next = cur.next
			}
			s.count--
			return cur
		}
		prev = cur
		cur = cur.next
	}
	return nil
}

// Replace erases any existing entry for e's key, then inserts e.
func (s *Store) Replace(e *Entry) {
	if old := s.removeFromBucket(e.key); old != nil {
		s.wheel.Disarm(unsafehelpers.BytesToString(e.key.Bytes))
		s.clock.Remove(old)
	}
	s.Insert(e)
}

// Erase removes the entry for key, reporting whether anything was removed.
func (s *Store) Erase(key Key) bool {
	e := s.removeFromBucket(key)
	if e == nil {
		return false
	}
	s.wheel.Disarm(unsafehelpers.BytesToString(key.Bytes))
	s.clock.Remove(e)
	s.cfg.metrics.setEntries(s.count)
	return true
}

func (s *Store) lookup(key Key) *Entry {
	idx := s.bucketIndex(key.Hash)
	for cur := s.buckets[idx]; cur != nil; cur = cur.next {
		if cur.key.Hash == key.Hash && bytes.Equal(cur.key.Bytes, key.Bytes) {
			return cur
		}
	}
	return nil
}

// WithEntry resolves key, applying lazy expiration (spec.md §4.5), and
// passes the live entry (nil if absent) to fn. fn must not trigger an
// allocation-bearing Store call; if it needs to, it should re-resolve the
// entry afterward per spec.md §4.1's "fresh pointers" rule.
func (s *Store) WithEntry(key Key, fn func(*Entry)) {
	e := s.lookup(key)
	if e != nil && e.Expired(time.Now()) {
		s.Erase(key)
		s.cfg.metrics.incExpiration()
		e = nil
	}
	if e != nil {
		clockpro.SetReferenced(e.ClockState())
		s.cfg.metrics.incHit()
	} else {
		s.cfg.metrics.incMiss()
	}
	fn(e)
}

// Len returns the live entry count (expired-but-not-yet-swept entries still
// count until Sweep or a lazy lookup reclaims them).
func (s *Store) Len() int64 { return s.count }

// ArenaBytes returns the total live bytes across this shard's generations.
func (s *Store) ArenaBytes() int64 { return s.gens.LiveBytes() }

// Arm (re-)schedules key's deadline, the EXPIRE/PERSIST rearm contract of
// spec.md §4.5. A zero deadline disarms the timer (PERSIST).
func (s *Store) Arm(key Key, deadline time.Time) {
	if deadline.IsZero() {
		s.wheel.Disarm(unsafehelpers.BytesToString(key.Bytes))
		return
	}
	s.wheel.Arm(unsafehelpers.BytesToString(key.Bytes), deadline)
}

// Sweep walks the timer wheel and erases every entry whose deadline has
// passed as of now, returning how many were reclaimed. The owning shard
// goroutine calls this on a SweepInterval ticker.
func (s *Store) Sweep(now time.Time) int {
	var reclaimed int
	s.wheel.Advance(now, func(k timerwheel.Key) {
		kb := []byte(k.(string))
		e := s.lookup(Key{Bytes: kb, Hash: hashKeyBytes(kb)})
		if e == nil {
			return
		}
		s.removeFromBucket(e.key)
		s.clock.Remove(e)
		s.cfg.metrics.incExpiration()
		reclaimed++
	})
	if reclaimed > 0 {
		s.cfg.metrics.setEntries(s.count)
	}
	return reclaimed
}

func (s *Store) maybeRehash() {
	if float64(s.count) <= float64(len(s.buckets))*loadFactor {
		return
	}
	old := s.buckets
	s.buckets = make([]*Entry, len(old)*2)
	for _, head := range old {
		for cur := head; cur != nil; {
			next := cur.next
			idx := s.bucketIndex(cur.key.Hash)
			cur.next = s.buckets[idx]
			s.buckets[idx] = cur
			cur = next
		}
	}
}
