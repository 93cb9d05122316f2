package store

import "github.com/arenakv/shardkv/internal/skiplist"

// ZAddFlags control ZADD's admission/update rules (spec.md §4.3.4).
type ZAddFlags uint8

const (
	ZAddNX   ZAddFlags = 1 << iota // only create
	ZAddXX                        // only update
	ZAddCH                        // return count changed instead of count added
	ZAddINCR                      // treat score as a delta
)

// NewZSet constructs an empty sorted set payload.
func NewZSet() *ZSet {
	return &ZSet{dict: make(map[string]*skiplist.Node), sl: skiplist.New()}
}

// Len returns the cardinality.
func (z *ZSet) Len() int { return int(z.sl.Len()) }

func (z *ZSet) insert(member string, score float64) *skiplist.Node {
	n := z.sl.Insert(score, []byte(member), nil)
	z.dict[member] = n
	return n
}

func (z *ZSet) delete(member string, score float64) {
	z.sl.Delete(score, []byte(member))
	delete(z.dict, member)
}

// Add applies flags and returns (newScore, changed, ok). ok is false only
// when NX and XX are both set (a syntax error the dispatcher must reject).
func (z *ZSet) Add(member []byte, score float64, flags ZAddFlags) (float64, bool, bool) {
	if flags&ZAddNX != 0 && flags&ZAddXX != 0 {
		return 0, false, false
	}
	m := string(member)
	existing, present := z.dict[m]

	if flags&ZAddNX != 0 && present {
		return existing.Score, false, true
	}
	if flags&ZAddXX != 0 && !present {
		return 0, false, true
	}

	newScore := score
	if flags&ZAddINCR != 0 && present {
		newScore = existing.Score + score
	}

	if present {
		if existing.Score == newScore {
			return newScore, false, true
		}
		z.delete(m, existing.Score)
	}
	z.insert(m, newScore)
	return newScore, true, true
}

// IncrBy adds delta to member's score (creating it at 0 if absent) and
// returns the new score.
func (z *ZSet) IncrBy(member []byte, delta float64) float64 {
	score, _, _ := z.Add(member, delta, ZAddINCR)
	return score
}

// Rem removes the listed members and returns how many existed.
func (z *ZSet) Rem(members [][]byte) int {
	var n int
	for _, mb := range members {
		m := string(mb)
		if node, ok := z.dict[m]; ok {
			z.delete(m, node.Score)
			n++
		}
	}
	return n
}

// Score returns member's score, or (0, false) if absent.
func (z *ZSet) Score(member []byte) (float64, bool) {
	n, ok := z.dict[string(member)]
	if !ok {
		return 0, false
	}
	return n.Score, true
}

// Rank returns member's 0-based rank, ascending unless reverse is set, or
// (-1, false) if absent.
func (z *ZSet) Rank(member []byte, reverse bool) (int64, bool) {
	n, ok := z.dict[string(member)]
	if !ok {
		return -1, false
	}
	r := z.sl.Rank(n.Score, member)
	if reverse {
		r = z.sl.Len() - 1 - r
	}
	return r, true
}

// ScoredMember pairs a member with its score for range replies.
type ScoredMember struct {
	Member []byte
	Score  float64
}

func normalizeRank(length, i int64) int64 {
	if i < 0 {
		i += length
	}
	return i
}

// Range returns members by rank range [lo, hi] (normalized per spec.md
// §4.3.1's convention), ascending unless reverse requests descending order.
func (z *ZSet) Range(lo, hi int64, reverse bool) []ScoredMember {
	length := z.sl.Len()
	lo = normalizeRank(length, lo)
	hi = normalizeRank(length, hi)
	if lo < 0 {
		lo = 0
	}
	if hi >= length {
		hi = length - 1
	}
	if lo > hi || length == 0 {
		return nil
	}

	out := make([]ScoredMember, 0, hi-lo+1)
	if !reverse {
		n := z.sl.ByRank(lo)
		for i := lo; i <= hi && n != nil; i++ {
			out = append(out, ScoredMember{Member: n.Member, Score: n.Score})
			n = n.Next()
		}
	} else {
		n := z.sl.ByRank(length - 1 - lo)
		for i := lo; i <= hi && n != nil; i++ {
			out = append(out, ScoredMember{Member: n.Member, Score: n.Score})
			n = n.Prev()
		}
	}
	return out
}

// RangeByScore returns members whose score falls in [min, max], paginated
// by offset/count (count < 0 means "no limit"), ascending unless reverse.
func (z *ZSet) RangeByScore(min, max float64, reverse bool, offset, count int) []ScoredMember {
	var all []ScoredMember
	for n := z.sl.FirstInScoreRange(min, max); n != nil && n.Score <= max; n = n.Next() {
		all = append(all, ScoredMember{Member: n.Member, Score: n.Score})
	}
	if reverse {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if count >= 0 && count < len(all) {
		all = all[:count]
	}
	return all
}

// Count returns the number of members with score in [min, max].
func (z *ZSet) Count(min, max float64) int64 {
	var n int64
	for node := z.sl.FirstInScoreRange(min, max); node != nil && node.Score <= max; node = node.Next() {
		n++
	}
	return n
}

// RemRangeByRank removes the members in the normalized rank range [lo, hi]
// and returns how many were removed.
func (z *ZSet) RemRangeByRank(lo, hi int64) int {
	members := z.Range(lo, hi, false)
	for _, sm := range members {
		z.delete(string(sm.Member), sm.Score)
	}
	return len(members)
}

// RemRangeByScore removes members with score in [min, max] and returns how
// many were removed.
func (z *ZSet) RemRangeByScore(min, max float64) int {
	var victims []ScoredMember
	for n := z.sl.FirstInScoreRange(min, max); n != nil && n.Score <= max; n = n.Next() {
		victims = append(victims, ScoredMember{Member: n.Member, Score: n.Score})
	}
	for _, v := range victims {
		z.delete(string(v.Member), v.Score)
	}
	return len(victims)
}

// Members returns every member with its score, in skiplist (ascending) order.
func (z *ZSet) Members() []ScoredMember {
	return z.Range(0, -1, false)
}
