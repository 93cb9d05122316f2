package dispatch

import (
	"strconv"
	"strings"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("LPUSH", 2, -1, cmdLPush)
	register("LPUSHX", 2, -1, cmdLPushX)
	register("RPUSH", 2, -1, cmdRPush)
	register("RPUSHX", 2, -1, cmdRPushX)
	register("LPOP", 1, 1, cmdLPop)
	register("RPOP", 1, 1, cmdRPop)
	register("LLEN", 1, 1, cmdLLen)
	register("LINDEX", 2, 2, cmdLIndex)
	register("LINSERT", 4, 4, cmdLInsert)
	register("LSET", 3, 3, cmdLSet)
	register("LRANGE", 3, 3, cmdLRange)
	register("LTRIM", 3, 3, cmdLTrim)
	register("LREM", 3, 3, cmdLRem)
}

// withList resolves key as a list, creating one on demand when mustExist is
// false and the key is absent; reports ErrWrongType against a non-list key.
func withList(ctx *Context, key store.Key, mustExist bool, fn func(l *store.List)) error {
	var l *store.List
	var typeErr error
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		if e.Tag != store.TagList {
			typeErr = ErrWrongType
			return
		}
		l = e.List
	})
	if typeErr != nil {
		return typeErr
	}
	if l == nil {
		if mustExist || found {
			fn(nil)
			return nil
		}
		entry := store.NewListEntry(key)
		l = entry.List
		ctx.Store.Insert(entry)
	}
	fn(l)
	if l.Len() == 0 {
		ctx.Store.Erase(key)
	}
	return nil
}

func cmdLPush(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withList(ctx, key, false, func(l *store.List) {
		for _, v := range ctx.Args[1:] {
			n = l.PushHead(v)
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdLPushX(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			return
		}
		for _, v := range ctx.Args[1:] {
			n = l.PushHead(v)
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdRPush(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withList(ctx, key, false, func(l *store.List) {
		for _, v := range ctx.Args[1:] {
			n = l.PushTail(v)
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdRPushX(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			return
		}
		for _, v := range ctx.Args[1:] {
			n = l.PushTail(v)
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdLPop(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var v []byte
	var ok bool
	err := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			return
		}
		v, ok = l.PopHead()
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

func cmdRPop(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var v []byte
	var ok bool
	err := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			return
		}
		v, ok = l.PopTail()
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

func cmdLLen(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var n int
	err := withList(ctx, key, true, func(l *store.List) {
		if l != nil {
			n = l.Len()
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(n))
	return nil
}

func cmdLIndex(ctx *Context) error {
	i, err := strconv.Atoi(string(ctx.Args[1]))
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var v []byte
	var ok bool
	derr := withList(ctx, key, true, func(l *store.List) {
		if l != nil {
			v, ok = l.Index(i)
		}
	})
	if derr != nil {
		return derr
	}
	if !ok {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteBulk(v)
	return nil
}

func cmdLInsert(ctx *Context) error {
	where := strings.ToUpper(string(ctx.Args[1]))
	if where != "BEFORE" && where != "AFTER" {
		return ErrSyntax
	}
	key := store.MakeKey(ctx.Args[0])
	var result int
	err := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			result = 0
			return
		}
		var ok bool
		if where == "BEFORE" {
			ok = l.InsertBefore(ctx.Args[2], ctx.Args[3])
		} else {
			ok = l.InsertAfter(ctx.Args[2], ctx.Args[3])
		}
		if !ok {
			result = -1
		} else {
			result = l.Len()
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(int64(result))
	return nil
}

func cmdLSet(ctx *Context) error {
	i, err := strconv.Atoi(string(ctx.Args[1]))
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var ok bool
	var found bool
	derr := withList(ctx, key, true, func(l *store.List) {
		if l == nil {
			return
		}
		found = true
		ok = l.SetAt(i, ctx.Args[2])
	})
	if derr != nil {
		return derr
	}
	if !found {
		return ErrNoSuchKey
	}
	if !ok {
		return ErrOutOfRange
	}
	ctx.W.WriteStatus("OK")
	return nil
}

func cmdLRange(ctx *Context) error {
	start, err := strconv.Atoi(string(ctx.Args[1]))
	if err != nil {
		return ErrNotInteger
	}
	end, err := strconv.Atoi(string(ctx.Args[2]))
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var items [][]byte
	derr := withList(ctx, key, true, func(l *store.List) {
		if l != nil {
			items = l.Range(start, end)
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteBulkArray(items)
	return nil
}

func cmdLTrim(ctx *Context) error {
	start, err := strconv.Atoi(string(ctx.Args[1]))
	if err != nil {
		return ErrNotInteger
	}
	end, err := strconv.Atoi(string(ctx.Args[2]))
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	derr := withList(ctx, key, true, func(l *store.List) {
		if l != nil {
			l.Trim(start, end)
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteStatus("OK")
	return nil
}

func cmdLRem(ctx *Context) error {
	count, err := strconv.Atoi(string(ctx.Args[1]))
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	var n int
	derr := withList(ctx, key, true, func(l *store.List) {
		if l != nil {
			n = l.RemoveValue(count, ctx.Args[2])
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteInt(int64(n))
	return nil
}
