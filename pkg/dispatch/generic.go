package dispatch

import (
	"strconv"
	"time"

	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("PING", 0, 1, cmdPing)
	register("ECHO", 1, 1, cmdEcho)
	register("COMMAND", 0, 0, cmdCommand)

	register("DEL", 1, -1, cmdDel)
	register("EXISTS", 1, -1, cmdExists)
	register("EXPIRE", 2, 2, cmdExpire)
	register("PEXPIRE", 2, 2, cmdPexpire)
	register("PERSIST", 1, 1, cmdPersist)
	register("TTL", 1, 1, cmdTTL)
	register("PTTL", 1, 1, cmdPTTL)
	register("TYPE", 1, 1, cmdType)

	register("DBSIZE", 0, 0, cmdDBSize)
	register("ARENABYTES", 0, 0, cmdArenaBytes)
}

func cmdPing(ctx *Context) error {
	if len(ctx.Args) == 1 {
		ctx.W.WriteBulk(ctx.Args[0])
		return nil
	}
	ctx.W.WriteStatus("PONG")
	return nil
}

func cmdEcho(ctx *Context) error {
	ctx.W.WriteBulk(ctx.Args[0])
	return nil
}

func cmdCommand(ctx *Context) error {
	names := CommandNames()
	ctx.W.WriteArrayHeader(len(names))
	for _, n := range names {
		ctx.W.WriteBulkString(n)
	}
	return nil
}

func cmdDel(ctx *Context) error {
	var n int64
	for _, k := range ctx.Args {
		if ctx.Store.Erase(store.MakeKey(k)) {
			n++
		}
	}
	ctx.W.WriteInt(n)
	return nil
}

func cmdExists(ctx *Context) error {
	var n int64
	for _, k := range ctx.Args {
		ctx.Store.WithEntry(store.MakeKey(k), func(e *store.Entry) {
			if e != nil {
				n++
			}
		})
	}
	ctx.W.WriteInt(n)
	return nil
}

func expireAt(ctx *Context, key store.Key, deadline time.Time) error {
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) { found = e != nil })
	if !found {
		ctx.W.WriteInt(0)
		return nil
	}
	ctx.Store.Arm(key, deadline)
	ctx.W.WriteInt(1)
	return nil
}

func cmdExpire(ctx *Context) error {
	seconds, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	return expireAt(ctx, key, ctx.Now.Add(time.Duration(seconds)*time.Second))
}

func cmdPexpire(ctx *Context) error {
	ms, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil {
		return ErrNotInteger
	}
	key := store.MakeKey(ctx.Args[0])
	return expireAt(ctx, key, ctx.Now.Add(time.Duration(ms)*time.Millisecond))
}

func cmdPersist(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var changed bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e != nil && e.HasDeadline() {
			changed = true
		}
	})
	if changed {
		ctx.Store.Arm(key, time.Time{})
		ctx.W.WriteInt(1)
	} else {
		ctx.W.WriteInt(0)
	}
	return nil
}

func cmdTTL(ctx *Context) error {
	return ttlReply(ctx, time.Second)
}

func cmdPTTL(ctx *Context) error {
	return ttlReply(ctx, time.Millisecond)
}

func ttlReply(ctx *Context, unit time.Duration) error {
	key := store.MakeKey(ctx.Args[0])
	var result int64 = -2
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		switch {
		case e == nil:
			result = -2
		case !e.HasDeadline():
			result = -1
		default:
			remaining := e.Deadline.Sub(ctx.Now)
			if remaining < 0 {
				remaining = 0
			}
			result = int64(remaining / unit)
		}
	})
	ctx.W.WriteInt(result)
	return nil
}

// cmdDBSize reports the live entry count of the shard handling this call,
// not a cluster-wide total — callers that want the full count sum every
// shard's reply (see pkg/router.Router.Stats).
func cmdDBSize(ctx *Context) error {
	ctx.W.WriteInt(ctx.Store.Len())
	return nil
}

// cmdArenaBytes reports the live byte count across this shard's arena
// generations, the shardkv analogue of Redis's MEMORY USAGE.
func cmdArenaBytes(ctx *Context) error {
	ctx.W.WriteInt(ctx.Store.ArenaBytes())
	return nil
}

func cmdType(ctx *Context) error {
	key := store.MakeKey(ctx.Args[0])
	var tag store.Tag
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e != nil {
			tag, found = e.Tag, true
		}
	})
	if !found {
		ctx.W.WriteStatus("none")
		return nil
	}
	ctx.W.WriteStatus(tag.String())
	return nil
}
