package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("GET", 1, 1, cmdGet)
	register("SET", 2, -1, cmdSet)
	register("MSET", 2, -1, cmdMSet)
	register("MGET", 1, -1, cmdMGet)
	register("APPEND", 2, 2, cmdAppend)
	register("STRLEN", 1, 1, cmdStrlen)
	register("INCR", 1, 1, cmdIncr)
	register("DECR", 1, 1, cmdDecr)
	register("INCRBY", 2, 2, cmdIncrBy)
	register("DECRBY", 2, 2, cmdDecrBy)
}

// resolveBytes reads key as a bytes-tagged value, rendering an integer or
// float payload the way Redis does: the exact decimal string it would have
// been SET with.
func resolveBytes(ctx *Context, key store.Key) ([]byte, bool, error) {
	var out []byte
	var found bool
	var typeErr error
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		switch e.Tag {
		case store.TagBytes:
			out = e.Bytes
		case store.TagInt:
			out = []byte(strconv.FormatInt(e.Int, 10))
		case store.TagFloat:
			out = []byte(strconv.FormatFloat(e.Float, 'f', -1, 64))
		default:
			typeErr = ErrWrongType
		}
	})
	return out, found, typeErr
}

func cmdGet(ctx *Context) error {
	v, found, err := resolveBytes(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if !found {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteBulk(v)
	return nil
}

func cmdSet(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	value := ctx.Args[1]

	var nx, xx bool
	var deadline time.Time
	for i := 2; i < len(ctx.Args); i++ {
		switch strings.ToUpper(string(ctx.Args[i])) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "EX":
			i++
			if i >= len(ctx.Args) {
				return ErrSyntax
			}
			n, err := strconv.ParseInt(string(ctx.Args[i]), 10, 64)
			if err != nil {
				return ErrNotInteger
			}
			deadline = ctx.Now.Add(time.Duration(n) * time.Second)
		case "PX":
			i++
			if i >= len(ctx.Args) {
				return ErrSyntax
			}
			n, err := strconv.ParseInt(string(ctx.Args[i]), 10, 64)
			if err != nil {
				return ErrNotInteger
			}
			deadline = ctx.Now.Add(time.Duration(n) * time.Millisecond)
		default:
			return ErrSyntax
		}
	}
	if nx && xx {
		return ErrSyntax
	}

	var exists bool
	ctx.Store.WithEntry(key, func(e *store.Entry) { exists = e != nil })
	if nx && exists {
		ctx.W.WriteBulk(nil)
		return nil
	}
	if xx && !exists {
		ctx.W.WriteBulk(nil)
		return nil
	}

	e := store.NewBytesEntry(key, value)
	e.Deadline = deadline
	ctx.Store.Replace(e)
	ctx.W.WriteStatus("OK")
	return nil
}

func cmdMSet(ctx *Context) error {
	if len(ctx.Args)%2 != 0 {
		return ErrWrongArgs
	}
	for i := 0; i < len(ctx.Args); i += 2 {
		key := store.MakeKey(ctx.Args[i])
		ctx.Store.Replace(store.NewBytesEntry(key, ctx.Args[i+1]))
	}
	ctx.W.WriteStatus("OK")
	return nil
}

func cmdMGet(ctx *Context) error {
	ctx.W.WriteArrayHeader(len(ctx.Args))
	for _, k := range ctx.Args {
		v, found, err := resolveBytes(ctx, store.MakeKey(k))
		if err != nil || !found {
			ctx.W.WriteBulk(nil)
			continue
		}
		ctx.W.WriteBulk(v)
	}
	return nil
}

func cmdAppend(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var existing []byte
	var typeErr error
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		if e.Tag != store.TagBytes {
			typeErr = ErrWrongType
			return
		}
		existing = e.Bytes
	})
	if typeErr != nil {
		return typeErr
	}
	merged := append(append([]byte(nil), existing...), ctx.Args[1]...)
	ctx.Store.Replace(store.NewBytesEntry(key, merged))
	ctx.W.WriteInt(int64(len(merged)))
	return nil
}

func cmdStrlen(ctx *Context) error {
	v, found, err := resolveBytes(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if !found {
		ctx.W.WriteInt(0)
		return nil
	}
	ctx.W.WriteInt(int64(len(v)))
	return nil
}

func incrByAndReply(ctx *Context, key store.Key, delta int64) error {
	var cur int64
	var typeErr error
	var deadline time.Time
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		deadline = e.Deadline
		switch e.Tag {
		case store.TagInt:
			cur = e.Int
		case store.TagBytes:
			n, err := strconv.ParseInt(string(e.Bytes), 10, 64)
			if err != nil {
				typeErr = ErrNotInteger
				return
			}
			cur = n
		default:
			typeErr = ErrWrongType
		}
	})
	if typeErr != nil {
		return typeErr
	}
	next := cur + delta
	e := store.NewIntEntry(key, next)
	e.Deadline = deadline
	ctx.Store.Replace(e)
	ctx.W.WriteInt(next)
	return nil
}

func cmdIncr(ctx *Context) error {
	return incrByAndReply(ctx, store.MakeKey(ctx.Args[0]), 1)
}

func cmdDecr(ctx *Context) error {
	return incrByAndReply(ctx, store.MakeKey(ctx.Args[0]), -1)
}

func cmdIncrBy(ctx *Context) error {
	n, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	return incrByAndReply(ctx, store.MakeKey(ctx.Args[0]), n)
}

func cmdDecrBy(ctx *Context) error {
	n, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	return incrByAndReply(ctx, store.MakeKey(ctx.Args[0]), -n)
}
