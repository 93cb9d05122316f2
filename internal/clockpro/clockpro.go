// Package clockpro implements the CLOCK-Pro replacement policy used by a
// shardkv shard to reclaim memory under capacity pressure, independent of the
// deadline-driven expiration scheduler (internal/timerwheel). original_source's
// cache.hh keeps these as two separate mechanisms — TTL expiry removes a key
// because its deadline passed; CLOCK-Pro eviction removes a key because the
// shard's byte budget is exceeded, even though the key has no TTL at all.
//
// Reference: Qingqing He, Jun Wang, "CLOCK-Pro: An Effective Improvement of
// the CLOCK Replacement", USENIX 2005.
//
// Our flavour is simplified for shardkv's use case:
//   - "weight" is the caller-supplied entry cost (bytes).
//   - Hot/Cold/Test states are folded into a single byte (see state_* consts).
//   - The algorithm runs inside the owning shard's goroutine — i.e. with
//     external synchronization already guaranteed — so this package has no
//     locking of its own.
//
// © 2025 shardkv authors. MIT License.
package clockpro

// EvictionReason explains why the eject callback fired.
type EvictionReason uint8

const (
	ReasonCapacity   EvictionReason = iota + 1 // displaced by CLOCK-Pro
	ReasonGeneration                           // generation retired, ghost promoted
)

const (
	stateCold uint8 = 0b00
	stateHot  uint8 = 0b01
	stateTest uint8 = 0b10 // ghost: metadata only, value already evicted
	refBit    uint8 = 0b10000000
)

// Node is the minimal handle CLOCK-Pro needs from a cache entry. Implemented
// by *store.Entry by embedding a Handle value and exposing its fields; kept
// as an interface (rather than the teacher's unsafe.Pointer re-interpret
// trick) so no duplicated struct layout has to be kept in sync by hand.
type Node interface {
	ClockState() *uint8
	ClockWeight() uint32
	ClockGenID() uint32
}

// Handle is the embeddable metadata block a cache entry carries so it can
// participate in the CLOCK-Pro ring. Embed by value in the entry struct.
type Handle struct {
	next, prev *metaNode
	state      uint8
	weight     uint32
	genID      uint32
}

// ClockState, ClockWeight, ClockGenID satisfy Node when Handle is embedded and
// the entry forwards these methods (see store.Entry).
func (h *Handle) ClockState() *uint8  { return &h.state }
func (h *Handle) ClockWeight() uint32 { return h.weight }
func (h *Handle) ClockGenID() uint32  { return h.genID }

// SetWeight and SetGenID let the owning entry update accounting fields
// in place (e.g. on overwrite, or when a fresh generation takes ownership).
func (h *Handle) SetWeight(w uint32) { h.weight = w }
func (h *Handle) SetGenID(id uint32) { h.genID = id }

// SetReferenced ORs the reference flag in place. Call on every cache hit.
func SetReferenced(b *uint8) { *b |= refBit }

type metaNode struct {
	next, prev *metaNode
	node       Node
}

// Clock is the CLOCK-Pro supervisor for one shard.
type Clock struct {
	head     *metaNode
	size     int64
	capacity int64

	ejectCb func(Node, EvictionReason)
}

// NewClock constructs the CLOCK-Pro supervisor for a capacity budget. ejectCb
// may be nil.
func NewClock(capacity int64, ejectCb func(Node, EvictionReason)) *Clock {
	return &Clock{capacity: capacity, ejectCb: ejectCb}
}

func (c *Clock) append(n Node) *metaNode {
	mn := &metaNode{node: n}
	if c.head == nil {
		mn.next, mn.prev = mn, mn
		c.head = mn
		return mn
	}
	tail := c.head.prev
	tail.next = mn
	mn.prev = tail
	mn.next = c.head
	c.head.prev = mn
	return mn
}

func (c *Clock) remove(n *metaNode) {
	if n.next == n {
		c.head = nil
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	if c.head == n {
		c.head = n.next
	}
}

// Insert registers a freshly created entry, initializing it cold+referenced,
// then evicts if the new total exceeds capacity.
func (c *Clock) Insert(n Node) {
	c.append(n)
	c.size += int64(n.ClockWeight())
	*n.ClockState() = stateCold | refBit
	c.evictIfNeeded()
}

// Remove deletes the entry's metadata (e.g. on an explicit DEL). Does not
// touch the arena.
func (c *Clock) Remove(n Node) {
	if c.head == nil {
		return
	}
	cur := c.head
	for {
		if cur.node == n {
			c.size -= int64(n.ClockWeight())
			c.remove(cur)
			return
		}
		cur = cur.next
		if cur == c.head {
			return
		}
	}
}

// GenerationEvicted marks every entry pointing at genID as a ghost: the
// value is already gone (the generation's Region was freed), but the
// metadata survives briefly to influence future admission decisions.
func (c *Clock) GenerationEvicted(genID uint32) {
	if c.head == nil {
		return
	}
	cur := c.head
	for {
		st := cur.node.ClockState()
		if cur.node.ClockGenID() == genID && *st&stateTest == 0 {
			c.size -= int64(cur.node.ClockWeight())
			*st = stateTest
		}
		cur = cur.next
		if cur == c.head {
			return
		}
	}
}

func (c *Clock) evictIfNeeded() {
	if c.head == nil || c.size <= c.capacity {
		return
	}
	hand := c.head
	for c.size > c.capacity {
		st := hand.node.ClockState()
		switch *st & 0b11 {
		case stateHot:
			if *st&refBit != 0 {
				*st &^= refBit
			} else {
				*st = stateCold
			}
		case stateCold:
			if *st&refBit != 0 {
				*st = stateHot &^ refBit
			} else {
				if c.ejectCb != nil {
					c.ejectCb(hand.node, ReasonCapacity)
				}
				*st = stateTest
				c.size -= int64(hand.node.ClockWeight())
			}
		case stateTest:
			nxt := hand.next
			c.remove(hand)
			hand = nxt
			continue
		}
		hand = hand.next
	}
	c.head = hand
}
