// Package bench provides reproducible micro-benchmarks for shardkv.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// We measure:
//  1. StoreInsert     – raw hash table write, no dispatch/parsing overhead
//  2. StoreGet        – raw hash table read via WithEntry
//  3. DispatchSetGet  – one shard's command dispatcher, SET then GET
//  4. DispatchParallel – concurrent dispatch against independent stores
//  5. RESPParse       – internal/resp.Parser decode throughput
//
// Results are printed in ns/op + alloc/op so CI can diff via benchstat.
//
// © 2025 shardkv authors. MIT License.
package bench

import (
	"math/rand"
	"testing"
	"time"

	"github.com/arenakv/shardkv/internal/resp"
	"github.com/arenakv/shardkv/pkg/dispatch"
	"github.com/arenakv/shardkv/pkg/store"
)

const (
	capBytes = 64 << 20 // 64 MiB per shard cap
	keys     = 1 << 20  // 1M keys for dataset
)

var ds = func() []uint64 {
	rnd := rand.New(rand.NewSource(42))
	arr := make([]uint64, keys)
	for i := range arr {
		arr[i] = rnd.Uint64()
	}
	return arr
}()

func newTestStore(b *testing.B) *store.Store {
	b.Helper()
	s, err := store.New(capBytes)
	if err != nil {
		b.Fatalf("store.New: %v", err)
	}
	return s
}

func keyBytes(i int) []byte {
	n := ds[i&(keys-1)]
	buf := make([]byte, 8)
	for j := 0; j < 8; j++ {
		buf[j] = byte(n >> (8 * j))
	}
	return buf
}

func BenchmarkStoreInsert(b *testing.B) {
	s := newTestStore(b)
	val := make([]byte, 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := store.MakeKey(keyBytes(i))
		s.Insert(store.NewBytesEntry(k, val))
	}
}

func BenchmarkStoreGet(b *testing.B) {
	s := newTestStore(b)
	val := make([]byte, 64)
	for i := 0; i < keys; i++ {
		k := store.MakeKey(keyBytes(i))
		s.Insert(store.NewBytesEntry(k, val))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := store.MakeKey(keyBytes(i))
		s.WithEntry(k, func(e *store.Entry) {})
	}
}

func BenchmarkDispatchSetGet(b *testing.B) {
	s := newTestStore(b)
	now := time.Now()
	val := []byte("v")
	w := resp.NewWriter()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keyBytes(i)
		w.Reset()
		dispatch.Dispatch(s, resp.Request{Argv: [][]byte{[]byte("SET"), key, val}}, w, now)
		w.Reset()
		dispatch.Dispatch(s, resp.Request{Argv: [][]byte{[]byte("GET"), key}}, w, now)
	}
}

func BenchmarkDispatchParallel(b *testing.B) {
	val := []byte("v")
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		s, err := store.New(capBytes)
		if err != nil {
			b.Fatalf("store.New: %v", err)
		}
		now := time.Now()
		w := resp.NewWriter()
		i := 0
		for pb.Next() {
			key := keyBytes(i)
			i++
			w.Reset()
			dispatch.Dispatch(s, resp.Request{Argv: [][]byte{[]byte("SET"), key, val}}, w, now)
			w.Reset()
			dispatch.Dispatch(s, resp.Request{Argv: [][]byte{[]byte("GET"), key}}, w, now)
		}
	})
}

func BenchmarkRESPParse(b *testing.B) {
	frame := []byte("*3\r\n$3\r\nSET\r\n$8\r\nabcdefgh\r\n$1\r\nv\r\n")
	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()
	b.ResetTimer()
	p := resp.NewParser()
	for i := 0; i < b.N; i++ {
		if _, err := p.Feed(frame); err != nil {
			b.Fatalf("Feed: %v", err)
		}
	}
}
