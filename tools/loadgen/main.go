// Command loadgen drives RESP traffic at a running shardkv-server, generating
// keys from the same uniform/zipf distributions tools/dataset_gen uses for
// standalone benchmarking (internal/keydist), but emitting them as live
// SET/GET requests over a pool of TCP connections instead of writing them
// to a file.
//
// Usage:
//   go run ./tools/loadgen -addr 127.0.0.1:6380 -n 1000000 -dist zipf -conns 16
//
// © 2025 shardkv authors. MIT License.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arenakv/shardkv/internal/keydist"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:6380", "shardkv-server RESP address")
		n       = flag.Int("n", 1_000_000, "total number of requests to issue")
		dist    = flag.String("dist", "uniform", "key distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		conns   = flag.Int("conns", 8, "number of concurrent connections")
		readPct = flag.Int("read-pct", 80, "percentage of requests that are GET rather than SET")
	)
	flag.Parse()

	gen, err := keydist.New(*dist, *zipfS, *zipfV, *seedVal)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
		os.Exit(1)
	}

	var issued, errs int64
	var wg sync.WaitGroup
	perConn := *n / *conns
	start := time.Now()

	for c := 0; c < *conns; c++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := runConn(*addr, perConn, *readPct, gen, &issued, &errs); err != nil {
				fmt.Fprintf(os.Stderr, "loadgen: conn %d: %v\n", id, err)
			}
		}(c)
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := atomic.LoadInt64(&issued)
	fmt.Printf("issued=%d errors=%d elapsed=%s rps=%.0f\n",
		total, atomic.LoadInt64(&errs), elapsed, float64(total)/elapsed.Seconds())
}

func runConn(addr string, requests, readPct int, keys *keydist.Generator, issued, errs *int64) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < requests; i++ {
		key := strconv.FormatUint(keys.Next(), 10)
		var frame string
		if rnd.Intn(100) < readPct {
			frame = resp2("GET", key)
		} else {
			frame = resp3("SET", key, "v")
		}
		if _, err := w.WriteString(frame); err != nil {
			atomic.AddInt64(errs, 1)
			return err
		}
		if err := w.Flush(); err != nil {
			atomic.AddInt64(errs, 1)
			return err
		}
		if _, err := readReply(r); err != nil {
			atomic.AddInt64(errs, 1)
			return err
		}
		atomic.AddInt64(issued, 1)
	}
	return nil
}

func resp2(cmd, a string) string {
	return fmt.Sprintf("*2\r\n$%d\r\n%s\r\n$%d\r\n%s\r\n", len(cmd), cmd, len(a), a)
}

func resp3(cmd, a, b string) string {
	return fmt.Sprintf("*3\r\n$%d\r\n%s\r\n$%d\r\n%s\r\n$%d\r\n%s\r\n", len(cmd), cmd, len(a), a, len(b), b)
}

// readReply reads exactly one RESP reply frame off r, enough to keep the
// connection's request/reply cadence in lockstep without a full parser.
func readReply(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) == 0 {
		return "", fmt.Errorf("empty reply")
	}
	switch line[0] {
	case '+', '-', ':':
		return line, nil
	case '$':
		n, err := strconv.Atoi(trimCRLF(line[1:]))
		if err != nil || n < 0 {
			return line, nil
		}
		body := make([]byte, n+2)
		if _, err := readFull(r, body); err != nil {
			return "", err
		}
		return string(body), nil
	case '*':
		n, err := strconv.Atoi(trimCRLF(line[1:]))
		if err != nil {
			return line, nil
		}
		for i := 0; i < n; i++ {
			if _, err := readReply(r); err != nil {
				return "", err
			}
		}
		return line, nil
	default:
		return line, nil
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
