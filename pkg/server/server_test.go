package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/arenakv/shardkv/pkg/router"
)

func newTestServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()
	r, err := router.New(2, router.WithShardCapBytes(1<<20))
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	return New(r, nil), cancel
}

func TestServeRespondsToSetGet(t *testing.T) {
	srv, cancel := newTestServer(t)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go srv.Serve(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte("*3\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\nb\r\n")); err != nil {
		t.Fatalf("write SET: %v", err)
	}
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read SET reply: %v", err)
	}
	if line != "+OK\r\n" {
		t.Fatalf("SET reply = %q", line)
	}

	if _, err := conn.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\na\r\n")); err != nil {
		t.Fatalf("write GET: %v", err)
	}
	header, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read GET header: %v", err)
	}
	if header != "$1\r\n" {
		t.Fatalf("GET header = %q", header)
	}
	body, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read GET body: %v", err)
	}
	if body != "b\r\n" {
		t.Fatalf("GET body = %q", body)
	}
}

func TestServeClosesOnContextCancel(t *testing.T) {
	srv, cancel := newTestServer(t)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
