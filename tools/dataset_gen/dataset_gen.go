// Command dataset_gen is a tiny helper utility to generate deterministic key
// datasets for standalone benchmarking of shardkv (outside `go test`). It
// emits newline-separated uint64 numbers which can later be passed to
// service load-testers or external benchmarking suites.
//
// Usage:
//   go run ./tools/dataset_gen -n 1000000 -dist=zipf -seed=42 -out keys.txt
//
// Flags:
//   -n       number of keys to generate (default 1e6)
//   -dist    distribution: "uniform" or "zipf" (default uniform)
//   -zipfs   Zipf s parameter (>1)  (default 1.2)
//   -zipfv   Zipf v parameter (>=1) (default 1.0)
//   -seed    RNG seed (default current time)
//   -out     output file (default stdout)
//
// The program is embarassingly simple but placed under version control so
// that any contributor can regenerate the exact dataset used in performance
// regression hunting.
//
// © 2025 shardkv authors. MIT License.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arenakv/shardkv/internal/keydist"
)

func main() {
	var (
		n       = flag.Int("n", 1_000_000, "number of keys to generate")
		dist    = flag.String("dist", "uniform", "distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	gen, err := keydist.New(*dist, *zipfS, *zipfV, *seedVal)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dataset_gen:", err)
		os.Exit(1)
	}

	var out *os.File
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		fmt.Fprintln(w, gen.Next())
	}
}
