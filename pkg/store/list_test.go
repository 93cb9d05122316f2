package store

import "testing"

func b(s string) []byte { return []byte(s) }

func TestListPushPop(t *testing.T) {
	l := NewList()
	l.PushTail(b("a"))
	l.PushTail(b("b"))
	l.PushHead(b("z"))

	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
	v, ok := l.PopHead()
	if !ok || string(v) != "z" {
		t.Fatalf("pop head = %q, want z", v)
	}
	v, ok = l.PopTail()
	if !ok || string(v) != "b" {
		t.Fatalf("pop tail = %q, want b", v)
	}
}

func TestListIndexNegative(t *testing.T) {
	l := NewList()
	for _, s := range []string{"a", "b", "c"} {
		l.PushTail(b(s))
	}
	v, ok := l.Index(-1)
	if !ok || string(v) != "c" {
		t.Fatalf("index -1 = %q, want c", v)
	}
	if _, ok := l.Index(10); ok {
		t.Fatalf("out-of-range index should report absent")
	}
}

func TestListInsertBeforeAfter(t *testing.T) {
	l := NewList()
	l.PushTail(b("a"))
	l.PushTail(b("c"))
	if !l.InsertAfter(b("a"), b("b")) {
		t.Fatalf("insert after should succeed")
	}
	if !l.InsertBefore(b("c"), b("bb")) {
		t.Fatalf("insert before should succeed")
	}
	want := []string{"a", "b", "bb", "c"}
	got := l.Range(0, -1)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("pos %d: got %q, want %q", i, got[i], w)
		}
	}
	if l.InsertBefore(b("nope"), b("x")) {
		t.Fatalf("insert before missing pivot should fail")
	}
}

func TestListRemoveValue(t *testing.T) {
	l := NewList()
	for _, s := range []string{"x", "a", "x", "a", "x"} {
		l.PushTail(b(s))
	}
	n := l.RemoveValue(2, b("x"))
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	got := l.Range(0, -1)
	if len(got) != 3 {
		t.Fatalf("remaining len = %d, want 3", len(got))
	}
}

func TestListRemoveValueFromTail(t *testing.T) {
	l := NewList()
	for _, s := range []string{"x", "a", "x", "a", "x"} {
		l.PushTail(b(s))
	}
	n := l.RemoveValue(-1, b("x"))
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	got := l.Range(0, -1)
	if string(got[len(got)-1]) == "" {
		t.Fatalf("unexpected empty tail")
	}
	if string(got[len(got)-1]) != "a" {
		t.Fatalf("expected the tail x removed leaving a last, got %q", got[len(got)-1])
	}
}

func TestListTrim(t *testing.T) {
	l := NewList()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		l.PushTail(b(s))
	}
	l.Trim(1, -2)
	got := l.Range(0, -1)
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("pos %d: got %q, want %q", i, got[i], w)
		}
	}
}

func TestListTrimEmptiesWhenStartAfterEnd(t *testing.T) {
	l := NewList()
	l.PushTail(b("a"))
	l.Trim(5, 10)
	if l.Len() != 0 {
		t.Fatalf("len = %d, want 0", l.Len())
	}
}

func TestListSetAt(t *testing.T) {
	l := NewList()
	l.PushTail(b("a"))
	l.PushTail(b("b"))
	if !l.SetAt(1, b("bb")) {
		t.Fatalf("set at 1 should succeed")
	}
	v, _ := l.Index(1)
	if string(v) != "bb" {
		t.Fatalf("got %q, want bb", v)
	}
	if l.SetAt(10, b("x")) {
		t.Fatalf("out-of-range set should fail")
	}
}
