// Package genring maintains a circular buffer ("ring") of arena generations
// used by a shardkv shard to implement O(1) bulk memory release for entry
// payloads. A generation owns:
//
//   - a Region (internal/arena) where managed-byte and node payloads live;
//   - a monotonically increasing ID so the expiration scheduler and the
//     capacity-based eviction policy can recognize entries whose generation
//     has since been rotated out;
//   - a creation timestamp, used by the timer wheel to decide when a
//     generation has aged out and should be rotated.
//
// Concurrency model
// -----------------
// A shardkv shard runs on exactly one goroutine (spec.md §5), so genring adds
// no locking of its own — the single owning goroutine is the only caller.
// This drops the atomics the teacher's generic Ring[K,V] needed to support
// concurrent shard access from arbitrary goroutines.
//
// © 2025 shardkv authors. MIT License.
package genring

import (
	"time"

	"github.com/arenakv/shardkv/internal/arena"
)

// Generation is one rotation slot of the ring.
type Generation struct {
	id      uint32
	region  *arena.Region // nil once freed
	created time.Time
	bytes   int64
}

func newGeneration(id uint32) *Generation {
	return &Generation{id: id, region: arena.New(), created: time.Now()}
}

// ID returns the stable identifier for the generation.
func (g *Generation) ID() uint32 { return g.id }

// Region exposes the underlying allocator. Valid until the generation is
// rotated out and Region() starts returning nil.
func (g *Generation) Region() *arena.Region { return g.region }

func (g *Generation) addBytes(n int64) { g.bytes += n }

// Size returns bytes currently attributed to this generation.
func (g *Generation) Size() int64 { return g.bytes }

// Age reports how long ago the generation was created.
func (g *Generation) Age() time.Duration { return time.Since(g.created) }

func (g *Generation) free() {
	if g.region != nil {
		g.region.Free()
		g.region = nil
	}
}

// Ring is a fixed-size circular buffer of generations. New allocations always
// land in the Active() generation; Rotate() retires the oldest slot and
// starts a fresh one.
type Ring struct {
	gens        []*Generation
	activeIdx   int
	perGenBytes int64
	idCtr       uint32
}

const defaultGenerations = 4

// New constructs a generation ring sized for the given per-shard byte budget.
func New(capBytes int64) *Ring {
	if capBytes <= 0 {
		panic("genring: capBytes must be positive")
	}

	r := &Ring{perGenBytes: capBytes / defaultGenerations}
	if r.perGenBytes == 0 {
		r.perGenBytes = capBytes
	}
	r.gens = make([]*Generation, defaultGenerations)

	r.idCtr = 1 // 0 is reserved for "no generation"
	r.gens[0] = newGeneration(r.idCtr)
	r.activeIdx = 0
	return r
}

// Active returns the generation currently used for new allocations.
func (r *Ring) Active() *Generation {
	return r.gens[r.activeIdx]
}

// CheckRotationNeeded adds delta bytes to the active generation's accounting
// and reports whether its byte budget has been exceeded.
func (r *Ring) CheckRotationNeeded(delta int64) bool {
	g := r.Active()
	g.addBytes(delta)
	return g.Size() > r.perGenBytes
}

// Rotate advances the ring, frees the arena of the generation about to be
// overwritten, and starts a fresh one. The freed generation is returned so
// the capacity-eviction policy and the expiration scheduler can recognize
// entries that still reference it as stale. The returned pointer is nil only
// before the ring has made a full revolution.
func (r *Ring) Rotate() *Generation {
	nextIdx := (r.activeIdx + 1) % len(r.gens)

	dead := r.gens[nextIdx]
	if dead != nil {
		dead.free()
	}

	r.idCtr++
	fresh := newGeneration(r.idCtr)
	r.gens[nextIdx] = fresh
	r.activeIdx = nextIdx
	return dead
}

// LiveBytes sums the approximate live size across all generations.
func (r *Ring) LiveBytes() int64 {
	var total int64
	for _, g := range r.gens {
		if g != nil {
			total += g.Size()
		}
	}
	return total
}
