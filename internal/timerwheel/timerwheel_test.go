package timerwheel

import (
	"testing"
	"time"
)

func TestArmAndAdvanceFires(t *testing.T) {
	w := New()
	w.Arm("a", time.Now().Add(50*time.Millisecond))
	w.Arm("b", time.Now().Add(500*time.Millisecond))

	var fired []Key
	n := w.Advance(time.Now().Add(100*time.Millisecond), func(k Key) {
		fired = append(fired, k)
	})
	if n != 1 || len(fired) != 1 || fired[0] != Key("a") {
		t.Fatalf("expected only %q to fire, got %v", "a", fired)
	}
	if w.Len() != 1 {
		t.Fatalf("len = %d, want 1 (b still armed)", w.Len())
	}
}

func TestDisarm(t *testing.T) {
	w := New()
	w.Arm("x", time.Now().Add(10*time.Millisecond))
	w.Disarm("x")
	if w.Len() != 0 {
		t.Fatalf("expected 0 armed after disarm, got %d", w.Len())
	}
	fired := 0
	w.Advance(time.Now().Add(time.Second), func(Key) { fired++ })
	if fired != 0 {
		t.Fatalf("disarmed key should not fire")
	}
}

func TestRearm(t *testing.T) {
	w := New()
	w.Arm("k", time.Now().Add(10*time.Millisecond))
	w.Arm("k", time.Now().Add(time.Second))

	fired := 0
	w.Advance(time.Now().Add(100*time.Millisecond), func(Key) { fired++ })
	if fired != 0 {
		t.Fatalf("rearmed key should not fire at its old deadline")
	}
	if w.Len() != 1 {
		t.Fatalf("len = %d, want 1", w.Len())
	}
}

func TestNextDeadline(t *testing.T) {
	w := New()
	if _, ok := w.NextDeadline(); ok {
		t.Fatalf("empty wheel should report no deadline")
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	w.Arm("a", deadline)
	next, ok := w.NextDeadline()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if next.Before(time.Now()) {
		t.Fatalf("deadline should be in the future")
	}
}

func TestMultipleFireAndDrain(t *testing.T) {
	w := New()
	for i := 0; i < 5; i++ {
		w.Arm(i, time.Now())
	}
	fired := 0
	w.Advance(time.Now().Add(time.Second), func(Key) { fired++ })
	if fired != 5 {
		t.Fatalf("fired = %d, want 5", fired)
	}
	if w.Len() != 0 {
		t.Fatalf("wheel should be empty after full drain")
	}
}
