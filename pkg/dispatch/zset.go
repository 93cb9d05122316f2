package dispatch

import (
	"math"
	"strconv"
	"strings"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("ZADD", 3, -1, cmdZAdd)
	register("ZREM", 2, -1, cmdZRem)
	register("ZCARD", 1, 1, cmdZCard)
	register("ZSCORE", 2, 2, cmdZScore)
	register("ZINCRBY", 3, 3, cmdZIncrBy)
	register("ZRANK", 2, 2, cmdZRank)
	register("ZREVRANK", 2, 2, cmdZRevRank)
	register("ZRANGE", 3, 4, cmdZRange)
	register("ZREVRANGE", 3, 4, cmdZRevRange)
	register("ZRANGEBYSCORE", 3, -1, cmdZRangeByScore)
	register("ZREVRANGEBYSCORE", 3, -1, cmdZRevRangeByScore)
	register("ZCOUNT", 3, 3, cmdZCount)
	register("ZREMRANGEBYRANK", 3, 3, cmdZRemRangeByRank)
	register("ZREMRANGEBYSCORE", 3, 3, cmdZRemRangeByScore)
}

// withZSet resolves key as a sorted set, creating one on demand when
// mustExist is false and the key is absent; reports ErrWrongType against a
// non-zset key.
func withZSet(ctx *Context, key store.Key, mustExist bool, fn func(z *store.ZSet)) error {
	var z *store.ZSet
	var typeErr error
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		if e.Tag != store.TagZSet {
			typeErr = ErrWrongType
			return
		}
		z = e.ZSet
	})
	if typeErr != nil {
		return typeErr
	}
	if z == nil {
		if mustExist || found {
			fn(nil)
			return nil
		}
		entry := store.NewZSetEntry(key)
		z = entry.ZSet
		ctx.Store.Insert(entry)
	}
	fn(z)
	if z.Len() == 0 {
		ctx.Store.Erase(key)
	}
	return nil
}

func readZSet(ctx *Context, key store.Key) (*store.ZSet, error) {
	var z *store.ZSet
	var typeErr error
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		if e.Tag != store.TagZSet {
			typeErr = ErrWrongType
			return
		}
		z = e.ZSet
	})
	return z, typeErr
}

func cmdZAdd(ctx *Context) error {
	rest := ctx.Args[1:]
	var flags store.ZAddFlags
	i := 0
	for i < len(rest) {
		switch strings.ToUpper(string(rest[i])) {
		case "NX":
			flags |= store.ZAddNX
			i++
		case "XX":
			flags |= store.ZAddXX
			i++
		case "CH":
			flags |= store.ZAddCH
			i++
		case "INCR":
			flags |= store.ZAddINCR
			i++
		default:
			goto pairs
		}
	}
pairs:
	if (len(rest)-i)%2 != 0 || len(rest)-i == 0 {
		return ErrWrongArgs
	}
	if flags&store.ZAddNX != 0 && flags&store.ZAddXX != 0 {
		return ErrSyntax
	}

	type pair struct {
		score  float64
		member []byte
	}
	pairs := make([]pair, 0, (len(rest)-i)/2)
	for ; i < len(rest); i += 2 {
		score, err := strconv.ParseFloat(string(rest[i]), 64)
		if err != nil {
			return ErrNotFloat
		}
		pairs = append(pairs, pair{score: score, member: rest[i+1]})
	}

	key := store.MakeKey(ctx.Args[0])
	var added, changed int64
	var lastScore float64
	var incrRejected bool
	err := withZSet(ctx, key, false, func(z *store.ZSet) {
		for _, p := range pairs {
			_, existedBefore := z.Score(p.member)
			newScore, wasChanged, ok := z.Add(p.member, p.score, flags)
			if !ok {
				return
			}
			if flags&store.ZAddINCR != 0 && !wasChanged && !existedBefore {
				incrRejected = true
				return
			}
			lastScore = newScore
			if wasChanged {
				changed++
				if !existedBefore {
					added++
				}
			}
		}
	})
	if err != nil {
		return err
	}

	if flags&store.ZAddINCR != 0 {
		if incrRejected {
			ctx.W.WriteBulk(nil)
			return nil
		}
		ctx.W.WriteBulkString(strconv.FormatFloat(lastScore, 'f', -1, 64))
		return nil
	}
	if flags&store.ZAddCH != 0 {
		ctx.W.WriteInt(changed)
		return nil
	}
	ctx.W.WriteInt(added)
	return nil
}

func cmdZRem(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withZSet(ctx, key, true, func(z *store.ZSet) {
		if z != nil {
			n = z.Rem(ctx.Args[1:])
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdZCard(ctx *Context) error {
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if z == nil {
		ctx.W.WriteInt(0)
		return nil
	}
	ctx.W.WriteInt(int64(z.Len()))
	return nil
}

func cmdZScore(ctx *Context) error {
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if z == nil {
		ctx.W.WriteBulk(nil)
		return nil
	}
	score, ok := z.Score(ctx.Args[1])
	if !ok {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteBulkString(strconv.FormatFloat(score, 'f', -1, 64))
	return nil
}

func cmdZIncrBy(ctx *Context) error {
	delta, err := strconv.ParseFloat(string(ctx.Args[1]), 64)
	if err != nil {
		return ErrNotFloat
	}
	key := store.MakeKey(ctx.Args[0])
	var score float64
	derr := withZSet(ctx, key, false, func(z *store.ZSet) {
		score = z.IncrBy(ctx.Args[2], delta)
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteBulkString(strconv.FormatFloat(score, 'f', -1, 64))
	return nil
}

func rankReply(ctx *Context, reverse bool) error {
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if z == nil {
		ctx.W.WriteBulk(nil)
		return nil
	}
	rank, ok := z.Rank(ctx.Args[1], reverse)
	if !ok {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteInt(rank)
	return nil
}

func cmdZRank(ctx *Context) error    { return rankReply(ctx, false) }
func cmdZRevRank(ctx *Context) error { return rankReply(ctx, true) }

func writeScoredMembers(ctx *Context, members []store.ScoredMember, withScores bool) {
	if !withScores {
		out := make([][]byte, len(members))
		for i, m := range members {
			out[i] = m.Member
		}
		ctx.W.WriteBulkArray(out)
		return
	}
	ctx.W.WriteArrayHeader(len(members) * 2)
	for _, m := range members {
		ctx.W.WriteBulk(m.Member)
		ctx.W.WriteBulkString(strconv.FormatFloat(m.Score, 'f', -1, 64))
	}
}

func rangeReply(ctx *Context, reverse bool) error {
	lo, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	hi, err := strconv.ParseInt(string(ctx.Args[2]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	withScores := false
	if len(ctx.Args) == 4 {
		if strings.ToUpper(string(ctx.Args[3])) != "WITHSCORES" {
			return ErrSyntax
		}
		withScores = true
	}
	z, zerr := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if zerr != nil {
		return zerr
	}
	var members []store.ScoredMember
	if z != nil {
		members = z.Range(lo, hi, reverse)
	}
	writeScoredMembers(ctx, members, withScores)
	return nil
}

func cmdZRange(ctx *Context) error    { return rangeReply(ctx, false) }
func cmdZRevRange(ctx *Context) error { return rangeReply(ctx, true) }

func parseScoreBound(s string) (float64, error) {
	switch s {
	case "-inf":
		return math.Inf(-1), nil
	case "+inf", "inf":
		return math.Inf(1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func rangeByScoreReply(ctx *Context, reverse bool) error {
	minArg, maxArg := ctx.Args[1], ctx.Args[2]
	if reverse {
		minArg, maxArg = maxArg, minArg
	}
	min, err := parseScoreBound(string(minArg))
	if err != nil {
		return ErrNotFloat
	}
	max, err := parseScoreBound(string(maxArg))
	if err != nil {
		return ErrNotFloat
	}

	withScores := false
	offset, count := 0, -1
	for i := 3; i < len(ctx.Args); i++ {
		switch strings.ToUpper(string(ctx.Args[i])) {
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			if i+2 >= len(ctx.Args) {
				return ErrSyntax
			}
			o, oerr := strconv.Atoi(string(ctx.Args[i+1]))
			if oerr != nil {
				return ErrNotInteger
			}
			c, cerr := strconv.Atoi(string(ctx.Args[i+2]))
			if cerr != nil {
				return ErrNotInteger
			}
			offset, count = o, c
			i += 2
		default:
			return ErrSyntax
		}
	}

	z, zerr := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if zerr != nil {
		return zerr
	}
	var members []store.ScoredMember
	if z != nil {
		members = z.RangeByScore(min, max, reverse, offset, count)
	}
	writeScoredMembers(ctx, members, withScores)
	return nil
}

func cmdZRangeByScore(ctx *Context) error    { return rangeByScoreReply(ctx, false) }
func cmdZRevRangeByScore(ctx *Context) error { return rangeByScoreReply(ctx, true) }

func cmdZCount(ctx *Context) error {
	min, err := parseScoreBound(string(ctx.Args[1]))
	if err != nil {
		return ErrNotFloat
	}
	max, err := parseScoreBound(string(ctx.Args[2]))
	if err != nil {
		return ErrNotFloat
	}
	z, zerr := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if zerr != nil {
		return zerr
	}
	if z == nil {
		ctx.W.WriteInt(0)
		return nil
	}
	ctx.W.WriteInt(z.Count(min, max))
	return nil
}

func cmdZRemRangeByRank(ctx *Context) error {
	lo, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	hi, err := strconv.ParseInt(string(ctx.Args[2]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var n int
	derr := withZSet(ctx, key, true, func(z *store.ZSet) {
		if z != nil {
			n = z.RemRangeByRank(lo, hi)
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdZRemRangeByScore(ctx *Context) error {
	min, err := parseScoreBound(string(ctx.Args[1]))
	if err != nil {
		return ErrNotFloat
	}
	max, err := parseScoreBound(string(ctx.Args[2]))
	if err != nil {
		return ErrNotFloat
	}
	key := store.MakeKey(ctx.Args[0])
	var n int
	derr := withZSet(ctx, key, true, func(z *store.ZSet) {
		if z != nil {
			n = z.RemRangeByScore(min, max)
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteInt(int64(n))
	return nil
}
