package dispatch

import (
	"strconv"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("HSET", 3, -1, cmdHSet)
	register("HMSET", 3, -1, cmdHMSet)
	register("HGET", 2, 2, cmdHGet)
	register("HMGET", 2, -1, cmdHMGet)
	register("HGETALL", 1, 1, cmdHGetAll)
	register("HKEYS", 1, 1, cmdHKeys)
	register("HVALS", 1, 1, cmdHVals)
	register("HDEL", 2, -1, cmdHDel)
	register("HEXISTS", 2, 2, cmdHExists)
	register("HLEN", 1, 1, cmdHLen)
	register("HSTRLEN", 2, 2, cmdHStrlen)
	register("HINCRBY", 3, 3, cmdHIncrBy)
	register("HINCRBYFLOAT", 3, 3, cmdHIncrByFloat)
}

func withHash(ctx *Context, key store.Key, mustExist bool, fn func(h *store.Hash)) error {
	var h *store.Hash
	var typeErr error
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		if e.Tag != store.TagHash {
			typeErr = ErrWrongType
			return
		}
		h = e.Hash
	})
	if typeErr != nil {
		return typeErr
	}
	if h == nil {
		if mustExist || found {
			fn(nil)
			return nil
		}
		entry := store.NewHashEntry(key)
		h = entry.Hash
		ctx.Store.Insert(entry)
	}
	fn(h)
	if h.Len() == 0 {
		ctx.Store.Erase(key)
	}
	return nil
}

func cmdHSet(ctx *Context) error {
	if (len(ctx.Args)-1)%2 != 0 {
		return ErrWrongArgs
	}
	key := store.MakeKey(ctx.Args[0])
	var created int64
	err := withHash(ctx, key, false, func(h *store.Hash) {
		for i := 1; i < len(ctx.Args); i += 2 {
			if h.SetBytes(string(ctx.Args[i]), ctx.Args[i+1]) {
				created++
			}
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(created)
	return nil
}

func cmdHMSet(ctx *Context) error {
	if (len(ctx.Args)-1)%2 != 0 {
		return ErrWrongArgs
	}
	key := store.MakeKey(ctx.Args[0])
	err := withHash(ctx, key, false, func(h *store.Hash) {
		for i := 1; i < len(ctx.Args); i += 2 {
			h.SetBytes(string(ctx.Args[i]), ctx.Args[i+1])
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteStatus("OK")
	return nil
}

func cmdHGet(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var v []byte
	var ok bool
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			v, ok = h.Get(string(ctx.Args[1]))
		}
	})
	if err != nil {
		return err
	}
	if !ok {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteBulk(v)
	return nil
}

func cmdHMGet(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	fields := make([]string, len(ctx.Args[1:]))
	for i, f := range ctx.Args[1:] {
		fields[i] = string(f)
	}
	var out [][]byte
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			out = h.GetMany(fields)
		} else {
			out = make([][]byte, len(fields))
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteBulkArray(out)
	return nil
}

func cmdHGetAll(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var all [][]byte
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			all = h.All()
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteBulkArray(all)
	return nil
}

func cmdHKeys(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var fields []string
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			fields = h.Fields()
		}
	})
	if err != nil {
		return err
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	ctx.W.WriteBulkArray(out)
	return nil
}

func cmdHVals(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var vals [][]byte
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			vals = h.Values()
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteBulkArray(vals)
	return nil
}

func cmdHDel(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h == nil {
			return
		}
		fields := make([]string, len(ctx.Args[1:]))
		for i, f := range ctx.Args[1:] {
			fields[i] = string(f)
		}
		n = h.DeleteMany(fields)
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdHExists(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var exists bool
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			exists = h.Exists(string(ctx.Args[1]))
		}
	})
	if err != nil {
		return err
	}
	if exists {
		ctx.W.WriteInt(1)
	} else {
		ctx.W.WriteInt(0)
	}
	return nil
}

func cmdHLen(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			n = h.Len()
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdHStrlen(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withHash(ctx, key, true, func(h *store.Hash) {
		if h != nil {
			n = h.StrLen(string(ctx.Args[1]))
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdHIncrBy(ctx *Context) error {
	delta, perr := strconv.ParseInt(string(ctx.Args[2]), 10, 64)
	if perr != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var result int64
	var incrErr error
	err := withHash(ctx, key, false, func(h *store.Hash) {
		result, incrErr = h.IncrBy(string(ctx.Args[1]), delta)
	})
	if err != nil {
		return err
	}
	if incrErr != nil {
		return incrErr
	}
	ctx.W.WriteInt(result)
	return nil
}

func cmdHIncrByFloat(ctx *Context) error {
	delta, perr := strconv.ParseFloat(string(ctx.Args[2]), 64)
	if perr != nil {
		return ErrNotFloat
	}
	key := store.MakeKey(ctx.Args[0])
	var result float64
	var incrErr error
	err := withHash(ctx, key, false, func(h *store.Hash) {
		result, incrErr = h.IncrByFloat(string(ctx.Args[1]), delta)
	})
	if err != nil {
		return err
	}
	if incrErr != nil {
		return incrErr
	}
	ctx.W.WriteBulkString(strconv.FormatFloat(result, 'f', -1, 64))
	return nil
}
