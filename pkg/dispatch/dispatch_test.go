package dispatch

import (
	"testing"
	"time"

	"github.com/arenakv/shardkv/internal/resp"
	"github.com/arenakv/shardkv/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(1 << 20)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return s
}

func run(t *testing.T, s *store.Store, now time.Time, args ...string) string {
	t.Helper()
	argv := make([][]byte, len(args))
	for i, a := range args {
		argv[i] = []byte(a)
	}
	w := resp.NewWriter()
	Dispatch(s, resp.Request{Argv: argv}, w, now)
	return string(w.Bytes())
}

func TestScenarioSetGet(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if got := run(t, s, now, "SET", "a", "b"); got != "+OK\r\n" {
		t.Fatalf("SET reply = %q", got)
	}
	if got := run(t, s, now, "GET", "a"); got != "$1\r\nb\r\n" {
		t.Fatalf("GET reply = %q", got)
	}
}

func TestScenarioIncr(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	for i, want := range []string{":1\r\n", ":2\r\n", ":3\r\n"} {
		if got := run(t, s, now, "INCR", "c"); got != want {
			t.Fatalf("INCR #%d reply = %q want %q", i, got, want)
		}
	}
	if got := run(t, s, now, "GET", "c"); got != "$1\r\n3\r\n" {
		t.Fatalf("GET reply = %q", got)
	}
}

func TestScenarioListPushRange(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if got := run(t, s, now, "LPUSH", "l", "x"); got != ":1\r\n" {
		t.Fatalf("LPUSH reply = %q", got)
	}
	if got := run(t, s, now, "RPUSH", "l", "y"); got != ":2\r\n" {
		t.Fatalf("RPUSH reply = %q", got)
	}
	if got := run(t, s, now, "LRANGE", "l", "0", "-1"); got != "*2\r\n$1\r\nx\r\n$1\r\ny\r\n" {
		t.Fatalf("LRANGE reply = %q", got)
	}
}

func TestScenarioHash(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if got := run(t, s, now, "HSET", "h", "f", "v"); got != ":1\r\n" {
		t.Fatalf("HSET reply = %q", got)
	}
	if got := run(t, s, now, "HGET", "h", "f"); got != "$1\r\nv\r\n" {
		t.Fatalf("HGET reply = %q", got)
	}
	if got := run(t, s, now, "HDEL", "h", "f"); got != ":1\r\n" {
		t.Fatalf("HDEL reply = %q", got)
	}
	if got := run(t, s, now, "EXISTS", "h"); got != ":0\r\n" {
		t.Fatalf("EXISTS reply = %q", got)
	}
}

func TestScenarioZSet(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if got := run(t, s, now, "ZADD", "z", "1", "a"); got != ":1\r\n" {
		t.Fatalf("ZADD a reply = %q", got)
	}
	if got := run(t, s, now, "ZADD", "z", "2", "b"); got != ":1\r\n" {
		t.Fatalf("ZADD b reply = %q", got)
	}
	if got := run(t, s, now, "ZRANGE", "z", "0", "-1"); got != "*2\r\n$1\r\na\r\n$1\r\nb\r\n" {
		t.Fatalf("ZRANGE reply = %q", got)
	}
}

func TestScenarioExpire(t *testing.T) {
	s := newTestStore(t)
	t0 := time.Now()
	if got := run(t, s, t0, "SET", "k", "v", "EX", "1"); got != "+OK\r\n" {
		t.Fatalf("SET reply = %q", got)
	}
	later := t0.Add(1100 * time.Millisecond)
	if got := run(t, s, later, "GET", "k"); got != "$-1\r\n" {
		t.Fatalf("GET after expiry reply = %q", got)
	}
}

func TestScenarioBitmap(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if got := run(t, s, now, "SETBIT", "b", "7", "1"); got != ":0\r\n" {
		t.Fatalf("SETBIT reply = %q", got)
	}
	if got := run(t, s, now, "GETBIT", "b", "7"); got != ":1\r\n" {
		t.Fatalf("GETBIT reply = %q", got)
	}
	if got := run(t, s, now, "BITCOUNT", "b", "0", "0"); got != ":1\r\n" {
		t.Fatalf("BITCOUNT reply = %q", got)
	}
}

// TestWrongTypeDoesNotMutate exercises property 4: a wrong-type failure must
// not mutate the store.
func TestWrongTypeDoesNotMutate(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	run(t, s, now, "SET", "k", "v")
	if got := run(t, s, now, "LPUSH", "k", "x"); got[0] != '-' {
		t.Fatalf("expected error reply, got %q", got)
	}
	if got := run(t, s, now, "GET", "k"); got != "$1\r\nv\r\n" {
		t.Fatalf("store mutated after wrong-type failure: %q", got)
	}
}

// TestEmptyCollectionDeleted exercises property 3: emptying a list/hash/
// set/zset removes the key entirely.
func TestEmptyCollectionDeleted(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	run(t, s, now, "LPUSH", "l", "x")
	run(t, s, now, "LPOP", "l")
	if got := run(t, s, now, "EXISTS", "l"); got != ":0\r\n" {
		t.Fatalf("emptied list key still exists: %q", got)
	}

	run(t, s, now, "SADD", "st", "m")
	run(t, s, now, "SREM", "st", "m")
	if got := run(t, s, now, "EXISTS", "st"); got != ":0\r\n" {
		t.Fatalf("emptied set key still exists: %q", got)
	}

	run(t, s, now, "ZADD", "zz", "1", "m")
	run(t, s, now, "ZREM", "zz", "m")
	if got := run(t, s, now, "EXISTS", "zz"); got != ":0\r\n" {
		t.Fatalf("emptied zset key still exists: %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	s := newTestStore(t)
	got := run(t, s, time.Now(), "NOTACOMMAND", "x")
	if got[0] != '-' {
		t.Fatalf("expected error reply for unknown command, got %q", got)
	}
}
