package store

import "testing"

func TestZAddAndScore(t *testing.T) {
	z := NewZSet()
	newScore, changed, ok := z.Add(b("m"), 1.5, 0)
	if !ok || !changed || newScore != 1.5 {
		t.Fatalf("add = %v %v %v", newScore, changed, ok)
	}
	score, present := z.Score(b("m"))
	if !present || score != 1.5 {
		t.Fatalf("score = %v, %v", score, present)
	}
}

func TestZAddNXXX(t *testing.T) {
	z := NewZSet()
	z.Add(b("m"), 1, 0)

	_, _, ok := z.Add(b("m"), 5, ZAddNX|ZAddXX)
	if ok {
		t.Fatalf("NX+XX together should be rejected")
	}

	_, changed, _ := z.Add(b("m"), 5, ZAddNX)
	if changed {
		t.Fatalf("NX on existing member should not change")
	}
	_, changed, _ = z.Add(b("new"), 5, ZAddXX)
	if changed {
		t.Fatalf("XX on absent member should not change")
	}
}

func TestZIncrBy(t *testing.T) {
	z := NewZSet()
	s := z.IncrBy(b("m"), 3)
	if s != 3 {
		t.Fatalf("incrby = %v, want 3", s)
	}
	s = z.IncrBy(b("m"), -1)
	if s != 2 {
		t.Fatalf("incrby = %v, want 2", s)
	}
}

func TestZRankAndRange(t *testing.T) {
	z := NewZSet()
	z.Add(b("a"), 1, 0)
	z.Add(b("b"), 2, 0)
	z.Add(b("c"), 3, 0)

	rank, ok := z.Rank(b("b"), false)
	if !ok || rank != 1 {
		t.Fatalf("rank = %v, %v; want 1", rank, ok)
	}
	revRank, _ := z.Rank(b("b"), true)
	if revRank != 1 {
		t.Fatalf("rev rank = %v, want 1", revRank)
	}

	members := z.Range(0, -1, false)
	if len(members) != 3 || string(members[0].Member) != "a" {
		t.Fatalf("range = %v", members)
	}
	rev := z.Range(0, -1, true)
	if string(rev[0].Member) != "c" {
		t.Fatalf("reverse range first = %q, want c", rev[0].Member)
	}
}

func TestZTieBreakByMember(t *testing.T) {
	z := NewZSet()
	z.Add(b("zebra"), 1, 0)
	z.Add(b("apple"), 1, 0)
	members := z.Range(0, -1, false)
	if string(members[0].Member) != "apple" {
		t.Fatalf("expected apple first on tie, got %q", members[0].Member)
	}
}

func TestZRangeByScoreAndCount(t *testing.T) {
	z := NewZSet()
	for i := 1; i <= 5; i++ {
		z.Add([]byte{byte('a' + i)}, float64(i), 0)
	}
	members := z.RangeByScore(2, 4, false, 0, -1)
	if len(members) != 3 {
		t.Fatalf("range by score len = %d, want 3", len(members))
	}
	if n := z.Count(2, 4); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestZRemRangeByRankAndScore(t *testing.T) {
	z := NewZSet()
	for i := 1; i <= 5; i++ {
		z.Add([]byte{byte('a' + i)}, float64(i), 0)
	}
	n := z.RemRangeByRank(0, 1)
	if n != 2 || z.Len() != 3 {
		t.Fatalf("removed %d, len %d", n, z.Len())
	}
	n = z.RemRangeByScore(4, 10)
	if n != 2 || z.Len() != 1 {
		t.Fatalf("removed %d, len %d", n, z.Len())
	}
}

func TestZRem(t *testing.T) {
	z := NewZSet()
	z.Add(b("a"), 1, 0)
	z.Add(b("b"), 2, 0)
	n := z.Rem([][]byte{b("a"), b("missing")})
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
}
