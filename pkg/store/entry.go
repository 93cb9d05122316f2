// Package store implements the per-shard data engine: the typed-value
// containers (spec.md §4.3), the cache store hash table (§4.4) and the
// CLOCK-Pro capacity eviction that rides alongside it (SPEC_FULL.md §4.6).
// A Store is owned by exactly one shard goroutine; nothing in this package
// takes a lock.
//
// © 2025 shardkv authors. MIT License.
package store

import (
	"time"

	"github.com/arenakv/shardkv/internal/bitops"
	"github.com/arenakv/shardkv/internal/clockpro"
	"github.com/arenakv/shardkv/internal/skiplist"
)

// Tag identifies the payload kind carried by an Entry, per spec.md §3's
// {bytes, integer, float, list, map, set, zset, bitmap} taxonomy.
type Tag uint8

const (
	TagBytes Tag = iota
	TagInt
	TagFloat
	TagList
	TagHash
	TagSet
	TagZSet
	TagBitmap
)

func (t Tag) String() string {
	switch t {
	case TagBytes:
		return "string"
	case TagInt:
		return "integer"
	case TagFloat:
		return "float"
	case TagList:
		return "list"
	case TagHash:
		return "hash"
	case TagSet:
		return "set"
	case TagZSet:
		return "zset"
	case TagBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Key is an immutable byte string plus its cached 64-bit hash (spec.md §3).
type Key struct {
	Bytes []byte
	Hash  uint64
}

// NewKey wraps raw key bytes with a hash the caller has already computed.
func NewKey(b []byte, hash uint64) Key { return Key{Bytes: b, Hash: hash} }

// Entry is a tagged-union container (spec.md §3): exactly one of the typed
// payload fields below is meaningful, selected by Tag. This mirrors the
// original engine's single allocation per key rather than boxing each
// payload behind an interface, keeping hot-path lookups allocation-free.
type Entry struct {
	clockpro.Handle // CLOCK-Pro bookkeeping: state/weight/generation id

	key      Key
	Tag      Tag
	Deadline time.Time // zero value = no TTL

	Bytes  []byte
	Int    int64
	Float  float64
	List   *List
	Hash   *Hash
	Set    *Set
	ZSet   *ZSet
	Bitmap *bitops.Bitmap

	next *Entry // bucket chain (store.go)
}

// Key returns the entry's key.
func (e *Entry) Key() Key { return e.key }

// HasDeadline reports whether the entry carries a TTL.
func (e *Entry) HasDeadline() bool { return !e.Deadline.IsZero() }

// Expired reports whether the entry's deadline has passed as of now
// (spec.md §3 invariant 3: "If an entry has a deadline ≤ now it is
// logically absent").
func (e *Entry) Expired(now time.Time) bool {
	return e.HasDeadline() && !now.Before(e.Deadline)
}

// newEntry constructs a bare entry of the given tag for key. Callers set the
// relevant payload field immediately afterward.
func newEntry(key Key, tag Tag) *Entry {
	return &Entry{key: key, Tag: tag}
}

// NewBytesEntry constructs a string-tagged entry.
func NewBytesEntry(key Key, v []byte) *Entry {
	e := newEntry(key, TagBytes)
	e.Bytes = v
	return e
}

// NewIntEntry constructs an integer-tagged entry.
func NewIntEntry(key Key, v int64) *Entry {
	e := newEntry(key, TagInt)
	e.Int = v
	return e
}

// NewFloatEntry constructs a float-tagged entry.
func NewFloatEntry(key Key, v float64) *Entry {
	e := newEntry(key, TagFloat)
	e.Float = v
	return e
}

// NewListEntry constructs a list-tagged entry wrapping an empty List.
func NewListEntry(key Key) *Entry {
	e := newEntry(key, TagList)
	e.List = NewList()
	return e
}

// NewHashEntry constructs a hash-tagged entry wrapping an empty Hash.
func NewHashEntry(key Key) *Entry {
	e := newEntry(key, TagHash)
	e.Hash = NewHash()
	return e
}

// NewSetEntry constructs a set-tagged entry wrapping an empty Set.
func NewSetEntry(key Key) *Entry {
	e := newEntry(key, TagSet)
	e.Set = NewSet()
	return e
}

// NewZSetEntry constructs a zset-tagged entry wrapping an empty ZSet.
func NewZSetEntry(key Key) *Entry {
	e := newEntry(key, TagZSet)
	e.ZSet = NewZSet()
	return e
}

// NewBitmapEntry constructs a bitmap-tagged entry wrapping an empty Bitmap.
func NewBitmapEntry(key Key) *Entry {
	e := newEntry(key, TagBitmap)
	e.Bitmap = bitops.New()
	return e
}

// List is the doubly linked list container (spec.md §4.3.1).
type List struct {
	head, tail *listNode
	length     int
}

type listNode struct {
	prev, next *listNode
	value      []byte
}

// Hash is the ordered field->value map container (spec.md §4.3.2). Fields
// are kept in a Go map for O(1) access; spec.md does not require iteration
// order to be insertion order (only that HKEYS/HVALS/HGETALL agree with one
// another), so a map is sufficient and avoids a second index structure.
type Hash struct {
	fields map[string]hashValue
}

type hashValue struct {
	tag   Tag // TagBytes, TagInt or TagFloat
	bytes []byte
	i     int64
	f     float64
}

// Set is the unordered unique-member container (spec.md §4.3.3).
type Set struct {
	members map[string]struct{}
}

// ZSet is the skiplist+dict co-indexed sorted set (spec.md §4.3.4).
type ZSet struct {
	dict map[string]*skiplist.Node
	sl   *skiplist.Skiplist
}
