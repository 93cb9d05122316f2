package dispatch

import (
	"strconv"

	"github.com/arenakv/shardkv/internal/bitops"
	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("SETBIT", 3, 3, cmdSetBit)
	register("GETBIT", 2, 2, cmdGetBit)
	register("BITCOUNT", 1, 3, cmdBitCount)
}

// withBitmap resolves key as a bitmap, creating one on demand when mustExist
// is false and the key is absent; reports ErrWrongType against a non-bitmap
// key.
func withBitmap(ctx *Context, key store.Key, mustExist bool, fn func(b *bitops.Bitmap)) error {
	var b *bitops.Bitmap
	var typeErr error
	var found bool
	ctx.Store.WithEntry(key, func(e *store.Entry) {
		if e == nil {
			return
		}
		found = true
		if e.Tag != store.TagBitmap {
			typeErr = ErrWrongType
			return
		}
		b = e.Bitmap
	})
	if typeErr != nil {
		return typeErr
	}
	if b == nil {
		if mustExist || found {
			fn(nil)
			return nil
		}
		entry := store.NewBitmapEntry(key)
		b = entry.Bitmap
		ctx.Store.Insert(entry)
	}
	fn(b)
	return nil
}

func cmdSetBit(ctx *Context) error {
	offset, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil || offset < 0 || offset > bitops.MaxOffsetBits {
		return ErrOutOfRange
	}
	var value bool
	switch string(ctx.Args[2]) {
	case "0":
		value = false
	case "1":
		value = true
	default:
		return ErrOutOfRange
	}
	key := store.MakeKey(ctx.Args[0])
	var prior bool
	derr := withBitmap(ctx, key, false, func(b *bitops.Bitmap) {
		prior = b.SetBit(offset, value)
	})
	if derr != nil {
		return derr
	}
	if prior {
		ctx.W.WriteInt(1)
	} else {
		ctx.W.WriteInt(0)
	}
	return nil
}

func cmdGetBit(ctx *Context) error {
	offset, err := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
	if err != nil || offset < 0 {
		return ErrOutOfRange
	}
	key := store.MakeKey(ctx.Args[0])
	var set bool
	derr := withBitmap(ctx, key, true, func(b *bitops.Bitmap) {
		if b != nil {
			set = b.GetBit(offset)
		}
	})
	if derr != nil {
		return derr
	}
	if set {
		ctx.W.WriteInt(1)
	} else {
		ctx.W.WriteInt(0)
	}
	return nil
}

func cmdBitCount(ctx *Context) error {
	start, end := int64(0), int64(-1)
	if len(ctx.Args) == 3 {
		s, serr := strconv.ParseInt(string(ctx.Args[1]), 10, 64)
		if serr != nil {
			return ErrNotInteger
		}
		e, eerr := strconv.ParseInt(string(ctx.Args[2]), 10, 64)
		if eerr != nil {
			return ErrNotInteger
		}
		start, end = s, e
	} else if len(ctx.Args) == 2 {
		return ErrSyntax
	}
	key := store.MakeKey(ctx.Args[0])
	var n int64
	derr := withBitmap(ctx, key, true, func(b *bitops.Bitmap) {
		if b != nil {
			n = b.BitCount(start, end)
		}
	})
	if derr != nil {
		return derr
	}
	ctx.W.WriteInt(n)
	return nil
}
