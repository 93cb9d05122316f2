// Package router fans an incoming command out to the shard that owns its
// key, rendering spec.md §4.9's "one core, one shard, message-passing
// cross-shard" design with Go channels instead of a hand-rolled cross-core
// RPC. Grounded on original_source/redis.hh's get_cpu()+smp::submit_to
// pattern: every request, including ones whose owning shard is the caller's
// own, is posted through the same mailbox so the code path is uniform.
//
// © 2025 shardkv authors. MIT License.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arenakv/shardkv/internal/resp"
	"github.com/arenakv/shardkv/pkg/dispatch"
	"github.com/arenakv/shardkv/pkg/store"
)

// call is one unit of mailbox traffic: a fully parsed request plus the
// channel its shard goroutine posts the reply back on.
type call struct {
	argv  [][]byte
	now   time.Time
	reply chan *resp.Writer
}

// Shard owns one store.Store and drains its own mailbox; it is read and
// written by exactly one goroutine (Run), matching spec.md §5's "no two
// tasks from the same shard run concurrently".
type Shard struct {
	id      int
	store   *store.Store
	mailbox chan call
	logger  *zap.Logger
	sweep   time.Duration
	onWrite MutationHook
}

// Router distributes requests across a fixed set of shards by xxhash of the
// routing key.
type Router struct {
	shards []*Shard
	logger *zap.Logger
}

// Option configures a Router at construction time.
type Option func(*routerConfig)

type routerConfig struct {
	shardCapBytes int64
	mailboxSize   int
	logger        *zap.Logger
	storeOpts     []store.Option
	metricsReg    *prometheus.Registry
	mutationHook  MutationHook
}

// MutationHook observes every write command after it has been applied, as
// the owning shard ran it: single-key commands arrive as the client sent
// them, MSET arrives as one SET per key, and SDIFFSTORE/SINTERSTORE/
// SUNIONSTORE arrive as the internal __SETSTORE__ write of the destination
// key and its resulting members. It runs on the owning shard's goroutine
// and must not block — a deployment wanting durable logging backs it with a
// buffered collaborator (such as a pkg/walsink Sink), the same arm's-length
// pattern the teacher uses for EjectCallback.
type MutationHook func(name string, args [][]byte, now time.Time)

// writeCommands names the commands a MutationHook is notified about: those
// that can mutate the store. Read-only and administrative commands never
// reach the hook.
var writeCommands = map[string]bool{
	"SET": true, "SETBIT": true, "APPEND": true, "INCR": true, "DECR": true,
	"INCRBY": true, "DECRBY": true, "MSET": true, "DEL": true,
	"EXPIRE": true, "PEXPIRE": true, "PERSIST": true,
	"LPUSH": true, "RPUSH": true, "LPUSHX": true, "RPUSHX": true,
	"LPOP": true, "RPOP": true, "LSET": true, "LTRIM": true, "LREM": true, "LINSERT": true,
	"HSET": true, "HMSET": true, "HDEL": true, "HINCRBY": true, "HINCRBYFLOAT": true,
	"SADD": true, "SREM": true, "SPOP": true, "SMOVE": true,
	"SDIFFSTORE": true, "SINTERSTORE": true, "SUNIONSTORE": true,
	"ZADD": true, "ZREM": true, "ZINCRBY": true, "ZREMRANGEBYRANK": true, "ZREMRANGEBYSCORE": true,
	"GEOADD": true, "__SETSTORE__": true,
}

func defaultRouterConfig() *routerConfig {
	return &routerConfig{
		shardCapBytes: 64 << 20,
		mailboxSize:   1024,
		logger:        zap.NewNop(),
	}
}

// WithShardCapBytes sets the per-shard arena byte budget (default 64 MiB).
func WithShardCapBytes(n int64) Option {
	return func(c *routerConfig) { c.shardCapBytes = n }
}

// WithMailboxSize sets each shard's buffered channel depth (default 1024).
func WithMailboxSize(n int) Option {
	return func(c *routerConfig) { c.mailboxSize = n }
}

// WithLogger plugs an external zap.Logger, forwarded to every shard's store.
func WithLogger(l *zap.Logger) Option {
	return func(c *routerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStoreOptions forwards extra store.Option values (eject callback, etc.)
// to every shard's store.Store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *routerConfig) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithMutationHook attaches a MutationHook invoked after every applied
// write command, for a deployment that wants to shadow writes to a WAL.
func WithMutationHook(h MutationHook) Option {
	return func(c *routerConfig) { c.mutationHook = h }
}

// WithMetricsRegistry registers one PrometheusMetrics collector set per
// shard, labeled by shard id, instead of a single shared sink — so a
// dashboard can break down hit/miss/eviction rates per core.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *routerConfig) { c.metricsReg = reg }
}

// New constructs a Router with n shards, each backed by its own store.Store.
// Call Run(ctx) to start the shard goroutines before routing any requests.
func New(n int, opts ...Option) (*Router, error) {
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	r := &Router{logger: cfg.logger}
	for i := 0; i < n; i++ {
		storeOpts := append([]store.Option{store.WithLogger(cfg.logger)}, cfg.storeOpts...)
		if cfg.metricsReg != nil {
			shardLabel := fmt.Sprintf("%d", i)
			storeOpts = append(storeOpts, store.WithMetrics(store.NewPrometheusMetrics(cfg.metricsReg, shardLabel)))
		}
		s, err := store.New(cfg.shardCapBytes, storeOpts...)
		if err != nil {
			return nil, err
		}
		r.shards = append(r.shards, &Shard{
			id:      i,
			store:   s,
			mailbox: make(chan call, cfg.mailboxSize),
			logger:  cfg.logger,
			sweep:   store.SweepInterval(),
			onWrite: cfg.mutationHook,
		})
	}
	return r, nil
}

// NumShards returns the shard count.
func (r *Router) NumShards() int { return len(r.shards) }

// Run starts every shard's goroutine loop; it returns once ctx is cancelled
// and every shard goroutine has returned. Calls still queued in a mailbox
// at cancellation are not processed.
func (r *Router) Run(ctx context.Context) {
	var wg errgroup.Group
	for _, s := range r.shards {
		s := s
		wg.Go(func() error {
			s.run(ctx)
			return nil
		})
	}
	_ = wg.Wait()
}

func (s *Shard) run(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.mailbox:
			w := resp.NewWriter()
			dispatch.Dispatch(s.store, resp.Request{Argv: c.argv}, w, c.now)
			if s.onWrite != nil && len(c.argv) > 0 && w.Bytes()[0] != '-' {
				name := strings.ToUpper(string(c.argv[0]))
				if writeCommands[name] {
					s.onWrite(name, c.argv[1:], c.now)
				}
			}
			c.reply <- w
		case now := <-ticker.C:
			if n := s.store.Sweep(now); n > 0 {
				s.logger.Debug("shard sweep reclaimed expired entries",
					zap.Int("shard", s.id), zap.Int("count", n))
			}
		}
	}
}

func (r *Router) shardFor(key []byte) *Shard {
	idx := int(xxhash.Sum64(key) % uint64(len(r.shards)))
	return r.shards[idx]
}

// submit posts argv to shard s's mailbox and blocks for the reply, honoring
// ctx cancellation (spec.md §5's cancellation rule: the caller's own reply is
// simply dropped, the shard's in-flight work still runs to completion).
func (s *Shard) submit(ctx context.Context, argv [][]byte, now time.Time) (*resp.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := call{argv: argv, now: now, reply: make(chan *resp.Writer, 1)}
	select {
	case s.mailbox <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case w := <-c.reply:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fanOutKeys are the multi-key commands that need cross-shard coordination:
// each one is rewritten into several single-key shard calls run concurrently
// via errgroup, per spec.md §4.10.
var fanOutKeys = map[string]bool{
	"MSET":        true,
	"SDIFFSTORE":  true,
	"SINTERSTORE": true,
	"SUNIONSTORE": true,
}

// Execute routes one parsed command (argv[0] is the name, argv[1:] its
// arguments) to the shard(s) that own its keys and returns the reply frame.
func (r *Router) Execute(ctx context.Context, argv [][]byte) (*resp.Writer, error) {
	if len(argv) == 0 {
		w := resp.NewWriter()
		w.WriteError(dispatch.ErrUnknownCmd.Error())
		return w, nil
	}
	name := strings.ToUpper(string(argv[0]))
	if fanOutKeys[name] {
		return r.executeFanOut(ctx, name, argv[1:], now())
	}

	var key []byte
	if len(argv) > 1 {
		key = argv[1]
	}
	shard := r.shardFor(key)
	return shard.submit(ctx, argv, now())
}

func now() time.Time { return time.Now() }

// ShardStats reports one shard's size for diagnostics (the HTTP debug
// snapshot, the inspect CLI).
type ShardStats struct {
	Shard      int
	Entries    int64
	ArenaBytes int64
}

// Stats gathers per-shard entry/arena-byte counts by posting DBSIZE and
// ARENABYTES to every shard concurrently, matching spec.md §4.9's
// message-passing-only rule: no shard's store is read from outside its own
// goroutine.
func (r *Router) Stats(ctx context.Context) ([]ShardStats, error) {
	out := make([]ShardStats, len(r.shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range r.shards {
		i, s := i, s
		g.Go(func() error {
			ts := now()
			sizeReply, err := s.submit(gctx, [][]byte{[]byte("DBSIZE")}, ts)
			if err != nil {
				return err
			}
			arenaReply, err := s.submit(gctx, [][]byte{[]byte("ARENABYTES")}, ts)
			if err != nil {
				return err
			}
			out[i] = ShardStats{
				Shard:      s.id,
				Entries:    int64(atoiBytes(trimIntReply(sizeReply.Bytes()))),
				ArenaBytes: int64(atoiBytes(trimIntReply(arenaReply.Bytes()))),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// trimIntReply strips the leading ':' and trailing "\r\n" from a RESP
// integer reply, e.g. ":42\r\n" -> "42".
func trimIntReply(b []byte) []byte {
	if len(b) < 3 || b[0] != ':' {
		return nil
	}
	return b[1 : len(b)-2]
}

// executeFanOut handles the commands whose keys may span multiple shards.
func (r *Router) executeFanOut(ctx context.Context, name string, args [][]byte, ts time.Time) (*resp.Writer, error) {
	switch name {
	case "MSET":
		return r.execMSet(ctx, args, ts)
	case "SDIFFSTORE", "SINTERSTORE", "SUNIONSTORE":
		return r.execSetStore(ctx, name, args, ts)
	}
	w := resp.NewWriter()
	w.WriteError(dispatch.ErrUnknownCmd.Error())
	return w, nil
}

func (r *Router) execMSet(ctx context.Context, args [][]byte, ts time.Time) (*resp.Writer, error) {
	if len(args)%2 != 0 {
		w := resp.NewWriter()
		w.WriteError(dispatch.ErrWrongArgs.Error())
		return w, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(args); i += 2 {
		key, val := args[i], args[i+1]
		g.Go(func() error {
			shard := r.shardFor(key)
			_, err := shard.submit(gctx, [][]byte{[]byte("SET"), key, val}, ts)
			return err
		})
	}
	w := resp.NewWriter()
	if err := g.Wait(); err != nil {
		w.WriteError(err.Error())
		return w, nil
	}
	w.WriteStatus("OK")
	return w, nil
}

// execSetStore gathers each source key's members (possibly from different
// shards) into the caller goroutine, computes the set operation locally,
// then overwrites the destination key on its own shard.
func (r *Router) execSetStore(ctx context.Context, name string, args [][]byte, ts time.Time) (*resp.Writer, error) {
	w := resp.NewWriter()
	if len(args) < 2 {
		w.WriteError(dispatch.ErrWrongArgs.Error())
		return w, nil
	}
	dst := args[0]
	srcKeys := args[1:]

	members := make([][][]byte, len(srcKeys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range srcKeys {
		i, k := i, k
		g.Go(func() error {
			shard := r.shardFor(k)
			reply, err := shard.submit(gctx, [][]byte{[]byte("SMEMBERS"), k}, ts)
			if err != nil {
				return err
			}
			members[i] = parseBulkArray(reply.Bytes())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.WriteError(err.Error())
		return w, nil
	}

	result := combineSets(name, members)

	dstShard := r.shardFor(dst)
	storeArgv := make([][]byte, 0, len(result)+2)
	storeArgv = append(storeArgv, []byte("__SETSTORE__"), dst)
	storeArgv = append(storeArgv, result...)
	reply, err := dstShard.submit(ctx, storeArgv, ts)
	if err != nil {
		w.WriteError(err.Error())
		return w, nil
	}
	return reply, nil
}

func combineSets(name string, sets [][][]byte) [][]byte {
	if len(sets) == 0 {
		return nil
	}
	first := setOf(sets[0])
	switch name {
	case "SDIFFSTORE":
		for _, other := range sets[1:] {
			for _, m := range other {
				delete(first, string(m))
			}
		}
	case "SINTERSTORE":
		for _, other := range sets[1:] {
			o := setOf(other)
			for k := range first {
				if _, ok := o[k]; !ok {
					delete(first, k)
				}
			}
		}
	case "SUNIONSTORE":
		for _, other := range sets[1:] {
			for _, m := range other {
				first[string(m)] = struct{}{}
			}
		}
	}
	out := make([][]byte, 0, len(first))
	for k := range first {
		out = append(out, []byte(k))
	}
	return out
}

func setOf(members [][]byte) map[string]struct{} {
	m := make(map[string]struct{}, len(members))
	for _, b := range members {
		m[string(b)] = struct{}{}
	}
	return m
}

// parseBulkArray extracts the bulk-string payloads from a RESP array reply,
// for reading a sub-call's SMEMBERS result back out of its *resp.Writer
// reply frame.
func parseBulkArray(frame []byte) [][]byte {
	return decodeArray(frame)
}

// decodeArray is a minimal reader for the exact shapes WriteBulkArray
// produces: "*N\r\n" followed by N bulk frames (or the null array/bulk).
func decodeArray(b []byte) [][]byte {
	if len(b) == 0 || b[0] != '*' {
		return nil
	}
	i := 1
	nEnd := indexCRLF(b, i)
	if nEnd < 0 {
		return nil
	}
	n := atoiBytes(b[i:nEnd])
	i = nEnd + 2
	if n <= 0 {
		return nil
	}
	out := make([][]byte, 0, n)
	for k := 0; k < n; k++ {
		if i >= len(b) || b[i] != '$' {
			return out
		}
		i++
		lEnd := indexCRLF(b, i)
		if lEnd < 0 {
			return out
		}
		length := atoiBytes(b[i:lEnd])
		i = lEnd + 2
		if length < 0 {
			out = append(out, nil)
			continue
		}
		out = append(out, b[i:i+length])
		i += length + 2
	}
	return out
}

func indexCRLF(b []byte, from int) int {
	for i := from; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func atoiBytes(b []byte) int {
	neg := false
	n := 0
	for i, c := range b {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}
