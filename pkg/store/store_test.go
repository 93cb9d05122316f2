package store

import (
	"testing"
	"time"
)

func TestInsertAndLookup(t *testing.T) {
	s, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := MakeKey([]byte("hello"))
	s.Insert(NewBytesEntry(key, []byte("world")))

	var got []byte
	s.WithEntry(key, func(e *Entry) {
		if e == nil {
			t.Fatalf("expected entry")
		}
		got = e.Bytes
	})
	if string(got) != "world" {
		t.Fatalf("got %q, want world", got)
	}
}

func TestEraseRemoves(t *testing.T) {
	s, _ := New(1 << 20)
	key := MakeKey([]byte("k"))
	s.Insert(NewBytesEntry(key, []byte("v")))
	if !s.Erase(key) {
		t.Fatalf("erase should report true")
	}
	if s.Erase(key) {
		t.Fatalf("second erase should report false")
	}
	s.WithEntry(key, func(e *Entry) {
		if e != nil {
			t.Fatalf("expected absent after erase")
		}
	})
}

func TestReplaceOverwrites(t *testing.T) {
	s, _ := New(1 << 20)
	key := MakeKey([]byte("k"))
	s.Insert(NewBytesEntry(key, []byte("v1")))
	s.Replace(NewBytesEntry(key, []byte("v2")))
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	s.WithEntry(key, func(e *Entry) {
		if string(e.Bytes) != "v2" {
			t.Fatalf("got %q, want v2", e.Bytes)
		}
	})
}

func TestRehashGrowsAndPreservesEntries(t *testing.T) {
	s, _ := New(1 << 20)
	const n = 200
	for i := 0; i < n; i++ {
		key := MakeKey([]byte{byte(i), byte(i >> 8)})
		s.Insert(NewBytesEntry(key, []byte("v")))
	}
	if s.Len() != n {
		t.Fatalf("len = %d, want %d", s.Len(), n)
	}
	if len(s.buckets) <= 16 {
		t.Fatalf("expected bucket table to grow past initial size, got %d", len(s.buckets))
	}
	for i := 0; i < n; i++ {
		key := MakeKey([]byte{byte(i), byte(i >> 8)})
		found := false
		s.WithEntry(key, func(e *Entry) { found = e != nil })
		if !found {
			t.Fatalf("entry %d missing after rehash", i)
		}
	}
}

func TestLazyExpirationOnLookup(t *testing.T) {
	s, _ := New(1 << 20)
	key := MakeKey([]byte("k"))
	e := NewBytesEntry(key, []byte("v"))
	e.Deadline = time.Now().Add(-time.Second)
	s.Insert(e)

	s.WithEntry(key, func(got *Entry) {
		if got != nil {
			t.Fatalf("expired entry should be treated as absent")
		}
	})
	if s.Len() != 0 {
		t.Fatalf("expired entry should have been reclaimed, len = %d", s.Len())
	}
}

func TestSweepReclaimsExpired(t *testing.T) {
	s, _ := New(1 << 20)
	key := MakeKey([]byte("k"))
	e := NewBytesEntry(key, []byte("v"))
	e.Deadline = time.Now().Add(10 * time.Millisecond)
	s.Insert(e)

	n := s.Sweep(time.Now().Add(200 * time.Millisecond))
	if n != 1 {
		t.Fatalf("sweep reclaimed %d, want 1", n)
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0 after sweep", s.Len())
	}
}

func TestRearmOnExpire(t *testing.T) {
	s, _ := New(1 << 20)
	key := MakeKey([]byte("k"))
	e := NewBytesEntry(key, []byte("v"))
	e.Deadline = time.Now().Add(10 * time.Millisecond)
	s.Insert(e)

	s.Arm(key, time.Now().Add(time.Hour))
	n := s.Sweep(time.Now().Add(200 * time.Millisecond))
	if n != 0 {
		t.Fatalf("rearmed entry should not be reclaimed yet, got %d", n)
	}
}
