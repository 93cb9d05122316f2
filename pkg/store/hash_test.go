package store

import "testing"

func TestHashSetGet(t *testing.T) {
	h := NewHash()
	if !h.SetBytes("f", b("v")) {
		t.Fatalf("first set should report newly created")
	}
	if h.SetBytes("f", b("v2")) {
		t.Fatalf("second set should report existed")
	}
	v, ok := h.Get("f")
	if !ok || string(v) != "v2" {
		t.Fatalf("got %q, want v2", v)
	}
	if _, ok := h.Get("missing"); ok {
		t.Fatalf("missing field should report absent")
	}
}

func TestHashDeleteMany(t *testing.T) {
	h := NewHash()
	h.SetBytes("a", b("1"))
	h.SetBytes("b", b("2"))
	n := h.DeleteMany([]string{"a", "b", "c"})
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	if h.Len() != 0 {
		t.Fatalf("len = %d, want 0", h.Len())
	}
}

func TestHashGetMany(t *testing.T) {
	h := NewHash()
	h.SetBytes("a", b("1"))
	got := h.GetMany([]string{"a", "missing"})
	if string(got[0]) != "1" || got[1] != nil {
		t.Fatalf("got %v", got)
	}
}

func TestHashIncrBy(t *testing.T) {
	h := NewHash()
	n, err := h.IncrBy("counter", 5)
	if err != nil || n != 5 {
		t.Fatalf("incrby = %d, %v; want 5, nil", n, err)
	}
	n, err = h.IncrBy("counter", -2)
	if err != nil || n != 3 {
		t.Fatalf("incrby = %d, %v; want 3, nil", n, err)
	}
	h.SetBytes("str", b("notanumber"))
	if _, err := h.IncrBy("str", 1); err != ErrNotInteger {
		t.Fatalf("expected ErrNotInteger, got %v", err)
	}
}

func TestHashIncrByFloat(t *testing.T) {
	h := NewHash()
	f, err := h.IncrByFloat("x", 1.5)
	if err != nil || f != 1.5 {
		t.Fatalf("incrbyfloat = %v, %v; want 1.5, nil", f, err)
	}
	f, err = h.IncrByFloat("x", 0.5)
	if err != nil || f != 2.0 {
		t.Fatalf("incrbyfloat = %v, %v; want 2.0, nil", f, err)
	}
}

func TestHashStrLen(t *testing.T) {
	h := NewHash()
	h.SetBytes("f", b("hello"))
	if n := h.StrLen("f"); n != 5 {
		t.Fatalf("strlen = %d, want 5", n)
	}
	if n := h.StrLen("missing"); n != 0 {
		t.Fatalf("strlen of missing = %d, want 0", n)
	}
}

func TestHashAll(t *testing.T) {
	h := NewHash()
	h.SetBytes("a", b("1"))
	pairs := h.All()
	if len(pairs) != 2 {
		t.Fatalf("expected 2 elements (field+value), got %d", len(pairs))
	}
}
