package bitops

import "testing"

func TestSetGetBit(t *testing.T) {
	b := New()
	if prev := b.SetBit(10, true); prev {
		t.Fatalf("prev bit should be false on fresh bitmap")
	}
	if !b.GetBit(10) {
		t.Fatalf("bit 10 should be set")
	}
	if b.GetBit(11) {
		t.Fatalf("bit 11 should be unset")
	}
	if prev := b.SetBit(10, false); !prev {
		t.Fatalf("prev bit should report true before clearing")
	}
	if b.GetBit(10) {
		t.Fatalf("bit 10 should be cleared")
	}
}

func TestGetBitBeyondSize(t *testing.T) {
	b := New()
	if b.GetBit(1000) {
		t.Fatalf("out-of-range bit must read false")
	}
}

func TestAutoExtend(t *testing.T) {
	b := New()
	b.SetBit(200, true)
	if b.Len() == 0 {
		t.Fatalf("bitmap should have grown")
	}
	if !b.GetBit(200) {
		t.Fatalf("bit 200 should read back set")
	}
}

func TestBitCountAllOnes(t *testing.T) {
	b := New()
	for i := int64(0); i < 64; i++ {
		b.SetBit(i, true)
	}
	if got := b.BitCount(0, -1); got != 64 {
		t.Fatalf("bitcount = %d, want 64", got)
	}
}

func TestBitCountSparseAndLargeSpan(t *testing.T) {
	b := New()
	const n = 100
	var want int64
	for i := int64(0); i < n*8; i++ {
		if i%3 == 0 {
			b.SetBit(i, true)
			want++
		}
	}
	if got := b.BitCount(0, -1); got != want {
		t.Fatalf("bitcount = %d, want %d", got, want)
	}
}

func TestBitCountRange(t *testing.T) {
	b := New()
	b.SetBit(0, true)
	b.SetBit(8, true)
	b.SetBit(16, true)
	if got := b.BitCount(1, -1); got != 2 {
		t.Fatalf("bitcount(1,-1) = %d, want 2", got)
	}
	if got := b.BitCount(0, 0); got != 1 {
		t.Fatalf("bitcount(0,0) = %d, want 1", got)
	}
}

func TestBitCountEmpty(t *testing.T) {
	b := New()
	if got := b.BitCount(0, -1); got != 0 {
		t.Fatalf("bitcount on empty bitmap = %d, want 0", got)
	}
}
