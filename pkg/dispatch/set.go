package dispatch

import (
	"strconv"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("SADD", 2, -1, cmdSAdd)
	register("SREM", 2, -1, cmdSRem)
	register("SCARD", 1, 1, cmdSCard)
	register("SISMEMBER", 2, 2, cmdSIsMember)
	register("SMEMBERS", 1, 1, cmdSMembers)
	register("SPOP", 1, 2, cmdSPop)
	register("SRANDMEMBER", 1, 2, cmdSRandMember)
	register("SMOVE", 3, 3, cmdSMove)
	register("SDIFF", 1, -1, cmdSDiff)
	register("SDIFFSTORE", 2, -1, cmdSDiffStore)
	register("SINTER", 1, -1, cmdSInter)
	register("SINTERSTORE", 2, -1, cmdSInterStore)
	register("SUNION", 1, -1, cmdSUnion)
	register("SUNIONSTORE", 2, -1, cmdSUnionStore)

	// __SETSTORE__ is an internal-only command: it overwrites args[0] with a
	// set built from args[1:]. The router uses it to land the result of a
	// cross-shard SDIFFSTORE/SINTERSTORE/SUNIONSTORE once it has computed the
	// member list in the caller goroutine (pkg/router.execSetStore).
	register("__SETSTORE__", 1, -1, cmdSetStoreInternal)
}

// withSet resolves key as a set, creating one on demand when mustExist is
// false and the key is absent; reports ErrWrongType against a non-set key.
func withSet(ctx *Context, key store.Key, mustExist bool, fn func(s *store.Set)) error {
	var s *store.Set
	var typeErr error
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		if e.Tag != store.TagSet {
			typeErr = ErrWrongType
			return
		}
		s = e.Set
	})
	if typeErr != nil {
		return typeErr
	}
	if s == nil {
		if mustExist || found {
			fn(nil)
			return nil
		}
		entry := store.NewSetEntry(key)
		s = entry.Set
		ctx.Store.Insert(entry)
	}
	fn(s)
	if s.Len() == 0 {
		ctx.Store.Erase(key)
	}
	return nil
}

// readSet loads key's set for a read-only operation without creating it.
func readSet(ctx *Context, key store.Key) (*store.Set, error) {
	var s *store.Set
	var typeErr error
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		if e.Tag != store.TagSet {
			typeErr = ErrWrongType
			return
		}
		s = e.Set
	})
	return s, typeErr
}

func cmdSAdd(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withSet(ctx, key, false, func(s *store.Set) {
		n = s.AddMany(ctx.Args[1:])
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdSRem(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withSet(ctx, key, true, func(s *store.Set) {
		if s != nil {
			n = s.RemoveMany(ctx.Args[1:])
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdSCard(ctx *Context) error {
	s, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if s == nil {
		ctx.W.WriteInt(0)
		return nil
	}
	ctx.W.WriteInt(int64(s.Len()))
	return nil
}

func cmdSIsMember(ctx *Context) error {
	s, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if s != nil && s.IsMember(ctx.Args[1]) {
		ctx.W.WriteInt(1)
	} else {
		ctx.W.WriteInt(0)
	}
	return nil
}

func cmdSMembers(ctx *Context) error {
	s, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if s == nil {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	ctx.W.WriteBulkArray(s.Members())
	return nil
}

func cmdSPop(ctx *Context) error {
	count := 1
	withCount := len(ctx.Args) == 2
	if withCount {
		n, err := strconv.Atoi(string(ctx.Args[1]))
		if err != nil {
			return ErrNotInteger
		}
		count = n
	}
	key := store.MakeKey(ctx.Args[0])
	var popped [][]byte
	err := withSet(ctx, key, true, func(s *store.Set) {
		if s != nil {
			popped = s.PopRandom(count)
		}
	})
	if err != nil {
		return err
	}
	if !withCount {
		if len(popped) == 0 {
			ctx.W.WriteBulk(nil)
			return nil
		}
		ctx.W.WriteBulk(popped[0])
		return nil
	}
	ctx.W.WriteBulkArray(popped)
	return nil
}

func cmdSRandMember(ctx *Context) error {
	s, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if len(ctx.Args) == 1 {
		if s == nil {
			ctx.W.WriteBulk(nil)
			return nil
		}
		ctx.W.WriteBulk(s.RandomMember())
		return nil
	}
	count, perr := strconv.Atoi(string(ctx.Args[1]))
	if perr != nil {
		return ErrNotInteger
	}
	if s == nil {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	members := s.Members()
	if count < 0 {
		// negative count: length -count, duplicates allowed
		want := -count
		out := make([][]byte, 0, want)
		if len(members) > 0 {
			for i := 0; i < want; i++ {
				out = append(out, members[i%len(members)])
			}
		}
		ctx.W.WriteBulkArray(out)
		return nil
	}
	if count > len(members) {
		count = len(members)
	}
	ctx.W.WriteBulkArray(members[:count])
	return nil
}

func cmdSMove(ctx *Context) error {
	src := store.MakeKey(ctx.Args[0])
	dst := store.MakeKey(ctx.Args[1])
	member := ctx.Args[2]

	var moved bool
	err := withSet(ctx, src, true, func(s *store.Set) {
		if s != nil {
			moved = s.Remove(member)
		}
	})
	if err != nil {
		return err
	}
	if !moved {
		ctx.W.WriteInt(0)
		return nil
	}
	derr := withSet(ctx, dst, false, func(s *store.Set) {
		s.Add(member)
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteInt(1)
	return nil
}

func loadOtherSets(ctx *Context, keys [][]byte) ([]*store.Set, error) {
	others := make([]*store.Set, 0, len(keys))
	for _, k := range keys {
		s, err := readSet(ctx, store.MakeKey(k))
		if err != nil {
			return nil, err
		}
		others = append(others, s)
	}
	return others, nil
}

func cmdSDiff(ctx *Context) error {
	first, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	others, err := loadOtherSets(ctx, ctx.Args[1:])
	if err != nil {
		return err
	}
	if first == nil {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	ctx.W.WriteBulkArray(first.Diff(others...))
	return nil
}

func cmdSInter(ctx *Context) error {
	first, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if first == nil {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	others, err := loadOtherSets(ctx, ctx.Args[1:])
	if err != nil {
		return err
	}
	ctx.W.WriteBulkArray(first.Inter(others...))
	return nil
}

func cmdSUnion(ctx *Context) error {
	first, err := readSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	others, err := loadOtherSets(ctx, ctx.Args[1:])
	if err != nil {
		return err
	}
	if first == nil {
		first = store.NewSet()
	}
	ctx.W.WriteBulkArray(first.Union(others...))
	return nil
}

func storeResult(ctx *Context, dst store.Key, members [][]byte) error {
	if len(members) == 0 {
		ctx.Store.Erase(dst)
		ctx.W.WriteInt(0)
		return nil
	}
	entry := store.NewSetEntry(dst)
	entry.Set.AddMany(members)
	ctx.Store.Replace(entry)
	ctx.W.WriteInt(int64(len(members)))
	return nil
}

func cmdSDiffStore(ctx *Context) error {
	dst := store.MakeKey(ctx.Args[0])
	first, err := readSet(ctx, store.MakeKey(ctx.Args[1]))
	if err != nil {
		return err
	}
	others, err := loadOtherSets(ctx, ctx.Args[2:])
	if err != nil {
		return err
	}
	var result [][]byte
	if first != nil {
		result = first.Diff(others...)
	}
	return storeResult(ctx, dst, result)
}

func cmdSInterStore(ctx *Context) error {
	dst := store.MakeKey(ctx.Args[0])
	first, err := readSet(ctx, store.MakeKey(ctx.Args[1]))
	if err != nil {
		return err
	}
	var result [][]byte
	if first != nil {
		others, oerr := loadOtherSets(ctx, ctx.Args[2:])
		if oerr != nil {
			return oerr
		}
		result = first.Inter(others...)
	}
	return storeResult(ctx, dst, result)
}

func cmdSetStoreInternal(ctx *Context) error {
	dst := store.MakeKey(ctx.Args[0])
	return storeResult(ctx, dst, ctx.Args[1:])
}

func cmdSUnionStore(ctx *Context) error {
	dst := store.MakeKey(ctx.Args[0])
	first, err := readSet(ctx, store.MakeKey(ctx.Args[1]))
	if err != nil {
		return err
	}
	others, err := loadOtherSets(ctx, ctx.Args[2:])
	if err != nil {
		return err
	}
	if first == nil {
		first = store.NewSet()
	}
	return storeResult(ctx, dst, first.Union(others...))
}
