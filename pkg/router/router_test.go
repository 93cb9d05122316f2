package router

import (
	"context"
	"testing"
)

func newTestRouter(t *testing.T, n int) *Router {
	t.Helper()
	r, err := New(n, WithShardCapBytes(1<<20), WithMailboxSize(16))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestShardForIsDeterministic(t *testing.T) {
	r := newTestRouter(t, 8)
	key := []byte("some-key")
	first := r.shardFor(key).id
	for i := 0; i < 100; i++ {
		if got := r.shardFor(key).id; got != first {
			t.Fatalf("shard routing not stable: got %d want %d", got, first)
		}
	}
}

func TestExecuteSetGet(t *testing.T) {
	r := newTestRouter(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	reply, err := r.Execute(ctx, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	if err != nil {
		t.Fatalf("SET: %v", err)
	}
	if string(reply.Bytes()) != "+OK\r\n" {
		t.Fatalf("SET reply = %q", reply.Bytes())
	}

	reply, err = r.Execute(ctx, [][]byte{[]byte("GET"), []byte("k")})
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if string(reply.Bytes()) != "$1\r\nv\r\n" {
		t.Fatalf("GET reply = %q", reply.Bytes())
	}
}

func TestExecuteMSetFanOut(t *testing.T) {
	r := newTestRouter(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	keys := [][]byte{[]byte("MSET")}
	for i := 0; i < 20; i++ {
		keys = append(keys, []byte{byte('a' + i)}, []byte{byte('0' + i%10)})
	}
	reply, err := r.Execute(ctx, keys)
	if err != nil {
		t.Fatalf("MSET: %v", err)
	}
	if string(reply.Bytes()) != "+OK\r\n" {
		t.Fatalf("MSET reply = %q", reply.Bytes())
	}

	for i := 0; i < 20; i++ {
		reply, err := r.Execute(ctx, [][]byte{[]byte("GET"), {byte('a' + i)}})
		if err != nil {
			t.Fatalf("GET %d: %v", i, err)
		}
		want := byte('0' + i%10)
		if string(reply.Bytes()) != "$1\r\n"+string(want)+"\r\n" {
			t.Fatalf("GET %d reply = %q", i, reply.Bytes())
		}
	}
}

func TestExecuteSetStoreFanOut(t *testing.T) {
	r := newTestRouter(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	mustExec := func(argv ...string) {
		t.Helper()
		raw := make([][]byte, len(argv))
		for i, a := range argv {
			raw[i] = []byte(a)
		}
		if _, err := r.Execute(ctx, raw); err != nil {
			t.Fatalf("Execute(%v): %v", argv, err)
		}
	}

	mustExec("SADD", "s1", "a", "b", "c")
	mustExec("SADD", "s2", "b", "c", "d")
	mustExec("SINTERSTORE", "dest", "s1", "s2")

	reply, err := r.Execute(ctx, [][]byte{[]byte("SCARD"), []byte("dest")})
	if err != nil {
		t.Fatalf("SCARD: %v", err)
	}
	if string(reply.Bytes()) != ":2\r\n" {
		t.Fatalf("SCARD reply = %q, expected 2 common members", reply.Bytes())
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	r := newTestRouter(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	reply, err := r.Execute(ctx, [][]byte{[]byte("BOGUS")})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if reply.Bytes()[0] != '-' {
		t.Fatalf("expected error reply, got %q", reply.Bytes())
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	r := newTestRouter(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Execute(ctx, [][]byte{[]byte("GET"), []byte("k")})
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
