// Command shardkv-inspect is the shardkv operator CLI: it parses
// command-line flags, fetches diagnostic data from a running shardkv-server's
// debug endpoint, and prints it either as pretty text or JSON. It also
// supports periodic watch mode and pprof snapshot download.
//
// The target process is expected to expose:
//   - GET /debug/shardkv/snapshot      – JSON payload with per-shard stats.
//   - GET /debug/pprof/{heap,goroutine} – standard pprof handlers (net/http/pprof).
//
// The snapshot object is intentionally generic; we decode into map[string]any
// to avoid version skew between CLI and server.
//
// Build-time flag: `-ldflags "-X main.version=vX.Y.Z"` is set by the release
// pipeline.
//
// © 2025 shardkv authors. MIT License.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var version = "dev"

type options struct {
	target           string
	json             bool
	watch            bool
	interval         time.Duration
	heapProfile      string
	goroutineProfile string
	version          bool
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.target, "target", "http://127.0.0.1:6060", "base URL of the shardkv-server debug HTTP listener")
	flag.BoolVar(&o.json, "json", false, "print the raw JSON snapshot instead of a formatted summary")
	flag.BoolVar(&o.watch, "watch", false, "poll the snapshot endpoint repeatedly")
	flag.DurationVar(&o.interval, "interval", 2*time.Second, "polling interval for -watch")
	flag.StringVar(&o.heapProfile, "heap-profile", "", "download a heap profile to this path and exit")
	flag.StringVar(&o.goroutineProfile, "goroutine-profile", "", "download a goroutine profile to this path and exit")
	flag.BoolVar(&o.version, "version", false, "print the CLI version and exit")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	if opts.version {
		fmt.Println(version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if opts.heapProfile != "" {
		if err := downloadProfile(ctx, opts.target, "heap", opts.heapProfile); err != nil {
			fatal(err)
		}
		return
	}
	if opts.goroutineProfile != "" {
		if err := downloadProfile(ctx, opts.target, "goroutine", opts.goroutineProfile); err != nil {
			fatal(err)
		}
		return
	}

	if opts.watch {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			if err := dumpOnce(ctx, opts); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}
	}

	if err := dumpOnce(ctx, opts); err != nil {
		fatal(err)
	}
}

func dumpOnce(ctx context.Context, opts *options) error {
	snap, err := fetchSnapshot(ctx, opts.target)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return prettyPrint(snap)
}

func fetchSnapshot(ctx context.Context, base string) (map[string]any, error) {
	url := base + "/debug/shardkv/snapshot"
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func prettyPrint(data map[string]any) error {
	fmt.Printf("Shards:     %v\n", data["shards"])
	fmt.Printf("Entries:    %v\n", data["entries"])
	fmt.Printf("Arena MB:   %.2f\n", toFloat(data["arena_bytes"])/1_048_576)

	shards, ok := data["per_shard"].([]any)
	if !ok {
		return nil
	}
	fmt.Println("--- per shard ---")
	for _, raw := range shards {
		s, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("  shard %v: entries=%v arena_bytes=%v\n", s["Shard"], s["Entries"], s["ArenaBytes"])
	}
	return nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func downloadProfile(ctx context.Context, base, name, path string) error {
	url := fmt.Sprintf("%s/debug/pprof/%s", base, name)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", res.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return err
	}
	fmt.Printf("%s profile saved to %s\n", name, path)
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "shardkv-inspect:", err)
	os.Exit(1)
}
