package dispatch

import (
	"strconv"
	"strings"

	"github.com/arenakv/shardkv/internal/geohash"
	"github.com/arenakv/shardkv/pkg/store"
)

func init() {
	register("GEOADD", 4, -1, cmdGeoAdd)
	register("GEOPOS", 1, -1, cmdGeoPos)
	register("GEODIST", 3, 4, cmdGeoDist)
	register("GEOHASH", 1, -1, cmdGeoHash)
	register("GEORADIUS", 5, -1, cmdGeoRadius)
	register("GEORADIUSBYMEMBER", 4, -1, cmdGeoRadiusByMember)
}

func cmdGeoAdd(ctx *Context) error {
	rest := ctx.Args[1:]
	if len(rest)%3 != 0 {
		return ErrWrongArgs
	}
	key := store.MakeKey(ctx.Args[0])
	var added int64
	err := withZSet(ctx, key, false, func(z *store.ZSet) {
		for i := 0; i < len(rest); i += 3 {
			lon, lerr := strconv.ParseFloat(string(rest[i]), 64)
			if lerr != nil {
				return
			}
			lat, laerr := strconv.ParseFloat(string(rest[i+1]), 64)
			if laerr != nil {
				return
			}
			member := rest[i+2]
			_, existed := z.Score(member)
			if z.GeoAdd(member, lon, lat) && !existed {
				added++
			}
		}
	})
	if err != nil {
		return err
	}
	ctx.W.WriteInt(added)
	return nil
}

func cmdGeoPos(ctx *Context) error {
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	ctx.W.WriteArrayHeader(len(ctx.Args) - 1)
	for _, m := range ctx.Args[1:] {
		if z == nil {
			ctx.W.WriteBulkArray(nil)
			continue
		}
		lon, lat, ok := z.GeoPos(m)
		if !ok {
			ctx.W.WriteBulkArray(nil)
			continue
		}
		ctx.W.WriteArrayHeader(2)
		ctx.W.WriteBulkString(strconv.FormatFloat(lon, 'f', -1, 64))
		ctx.W.WriteBulkString(strconv.FormatFloat(lat, 'f', -1, 64))
	}
	return nil
}

func cmdGeoDist(ctx *Context) error {
	unit := "m"
	if len(ctx.Args) == 4 {
		unit = string(ctx.Args[3])
	}
	if !geohash.ValidUnit(unit) {
		return ErrSyntax
	}
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	if z == nil {
		ctx.W.WriteBulk(nil)
		return nil
	}
	dist, ok := z.GeoDist(ctx.Args[1], ctx.Args[2], unit)
	if !ok {
		ctx.W.WriteBulk(nil)
		return nil
	}
	ctx.W.WriteBulkString(strconv.FormatFloat(dist, 'f', 4, 64))
	return nil
}

func cmdGeoHash(ctx *Context) error {
	z, err := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if err != nil {
		return err
	}
	ctx.W.WriteArrayHeader(len(ctx.Args) - 1)
	for _, m := range ctx.Args[1:] {
		if z == nil {
			ctx.W.WriteBulk(nil)
			continue
		}
		lon, lat, ok := z.GeoPos(m)
		if !ok {
			ctx.W.WriteBulk(nil)
			continue
		}
		hash, _ := geohash.Encode(lon, lat)
		ctx.W.WriteBulkString(geohash.ToBase32(hash))
	}
	return nil
}

type geoRadiusOpts struct {
	withCoord, withDist, withHash bool
	count                         int
	asc, desc                     bool
}

func parseGeoRadiusOpts(args [][]byte) (geoRadiusOpts, error) {
	opts := geoRadiusOpts{count: -1}
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "WITHCOORD":
			opts.withCoord = true
		case "WITHDIST":
			opts.withDist = true
		case "WITHHASH":
			opts.withHash = true
		case "ASC":
			opts.asc = true
		case "DESC":
			opts.desc = true
		case "COUNT":
			i++
			if i >= len(args) {
				return opts, ErrSyntax
			}
			n, err := strconv.Atoi(string(args[i]))
			if err != nil {
				return opts, ErrNotInteger
			}
			opts.count = n
		default:
			return opts, ErrSyntax
		}
	}
	return opts, nil
}

func writeGeoRadiusResults(ctx *Context, results []store.GeoRadiusResult, opts geoRadiusOpts) {
	if !opts.withCoord && !opts.withDist && !opts.withHash {
		out := make([][]byte, len(results))
		for i, r := range results {
			out[i] = r.Member
		}
		ctx.W.WriteBulkArray(out)
		return
	}
	ctx.W.WriteArrayHeader(len(results))
	for _, r := range results {
		fields := 1
		if opts.withDist {
			fields++
		}
		if opts.withHash {
			fields++
		}
		if opts.withCoord {
			fields++
		}
		ctx.W.WriteArrayHeader(fields)
		ctx.W.WriteBulk(r.Member)
		if opts.withDist {
			ctx.W.WriteBulkString(strconv.FormatFloat(r.DistUnits, 'f', 4, 64))
		}
		if opts.withHash {
			ctx.W.WriteInt(int64(r.Hash))
		}
		if opts.withCoord {
			ctx.W.WriteArrayHeader(2)
			ctx.W.WriteBulkString(strconv.FormatFloat(r.Lon, 'f', -1, 64))
			ctx.W.WriteBulkString(strconv.FormatFloat(r.Lat, 'f', -1, 64))
		}
	}
}

func cmdGeoRadius(ctx *Context) error {
	lon, err := strconv.ParseFloat(string(ctx.Args[1]), 64)
	if err != nil {
		return ErrNotFloat
	}
	lat, err := strconv.ParseFloat(string(ctx.Args[2]), 64)
	if err != nil {
		return ErrNotFloat
	}
	radius, err := strconv.ParseFloat(string(ctx.Args[3]), 64)
	if err != nil {
		return ErrNotFloat
	}
	unit := string(ctx.Args[4])
	if !geohash.ValidUnit(unit) {
		return ErrSyntax
	}
	opts, operr := parseGeoRadiusOpts(ctx.Args[5:])
	if operr != nil {
		return operr
	}
	z, zerr := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if zerr != nil {
		return zerr
	}
	asc := opts.asc || !opts.desc
	var results []store.GeoRadiusResult
	if z != nil {
		results = z.GeoRadius(lon, lat, geohash.UnitToMeters(unit)*radius, unit, opts.count, asc)
	}
	writeGeoRadiusResults(ctx, results, opts)
	return nil
}

func cmdGeoRadiusByMember(ctx *Context) error {
	member := ctx.Args[1]
	radius, err := strconv.ParseFloat(string(ctx.Args[2]), 64)
	if err != nil {
		return ErrNotFloat
	}
	unit := string(ctx.Args[3])
	if !geohash.ValidUnit(unit) {
		return ErrSyntax
	}
	opts, operr := parseGeoRadiusOpts(ctx.Args[4:])
	if operr != nil {
		return operr
	}
	z, zerr := readZSet(ctx, store.MakeKey(ctx.Args[0]))
	if zerr != nil {
		return zerr
	}
	if z == nil {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	asc := opts.asc || !opts.desc
	results, ok := z.GeoRadiusByMember(member, geohash.UnitToMeters(unit)*radius, unit, opts.count, asc)
	if !ok {
		ctx.W.WriteBulkArray(nil)
		return nil
	}
	writeGeoRadiusResults(ctx, results, opts)
	return nil
}
