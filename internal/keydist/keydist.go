// Package keydist generates synthetic key ids under a chosen distribution,
// shared by tools/dataset_gen (writes ids to a file for offline replay) and
// tools/loadgen (drives ids straight at a live shardkv-server). Grounded on
// the teacher's tools/dataset_gen/dataset_gen.go uniform/zipf generator,
// factored out so both tools import one implementation instead of each
// carrying its own copy.
//
// © 2025 shardkv authors. MIT License.
package keydist

import (
	"fmt"
	"math/rand"
	"sync"
)

// Generator produces the next key id under some distribution, safe for
// concurrent use by multiple caller goroutines (tools/loadgen drives one
// per connection).
type Generator struct {
	mu  sync.Mutex
	gen func() uint64
}

// New builds a Generator for dist ("uniform" or "zipf"), seeded from seed.
// zipfS and zipfV are the Zipf s/v parameters and are only consulted when
// dist is "zipf".
func New(dist string, zipfS, zipfV float64, seed int64) (*Generator, error) {
	rnd := rand.New(rand.NewSource(seed))
	switch dist {
	case "uniform":
		return &Generator{gen: rnd.Uint64}, nil
	case "zipf":
		if zipfS <= 1.0 || zipfV < 1 {
			return nil, fmt.Errorf("zipfs must be >1 and zipfv >=1")
		}
		z := rand.NewZipf(rnd, zipfS, zipfV, ^uint64(0))
		return &Generator{gen: z.Uint64}, nil
	default:
		return nil, fmt.Errorf("unknown dist: %s", dist)
	}
}

// Next returns the next id in the sequence.
func (g *Generator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen()
}
